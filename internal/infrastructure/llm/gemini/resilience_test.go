package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

func TestClassifyErrorRetriesServerStatuses(t *testing.T) {
	err := fmt.Errorf("generate content: %w", genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"})
	class := classifyError(err)
	if !class.Retryable || !class.RecordFailure {
		t.Fatalf("expected retryable recorded failure, got %+v", class)
	}
}

func TestClassifyErrorDoesNotRetryClientStatuses(t *testing.T) {
	err := genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}
	class := classifyError(err)
	if class.Retryable {
		t.Fatalf("client error must not be retried, got %+v", class)
	}
}

func TestClassifyErrorIgnoresContextCancellation(t *testing.T) {
	class := classifyError(context.Canceled)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must not trip the breaker, got %+v", class)
	}
}

func TestWrapClientErrorMapsQuotaToTemporary(t *testing.T) {
	err := wrapClientError("generate", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestWrapClientErrorMapsAuthToUnavailable(t *testing.T) {
	err := wrapClientError("generate", genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED"})
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestWrapClientErrorPassesThroughUnknown(t *testing.T) {
	sentinel := errors.New("something else")
	if got := wrapClientError("embed", sentinel); !errors.Is(got, sentinel) {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
