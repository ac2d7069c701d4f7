package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

func TestClassifyErrorRetriesConnectionFailures(t *testing.T) {
	for _, err := range []error{nats.ErrNoServers, nats.ErrTimeout, nats.ErrConnectionClosed, nats.ErrDisconnected} {
		class := classifyError(err)
		if !class.Retryable || !class.RecordFailure {
			t.Fatalf("expected retryable failure for %v, got %+v", err, class)
		}
	}
}

func TestClassifyErrorIgnoresCancellation(t *testing.T) {
	class := classifyError(context.Canceled)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must not count, got %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(nats.ErrTimeout)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}

	permanent := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(permanent); !errors.Is(got, permanent) || domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("permanent error must pass through, got %v", got)
	}

	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestSubjectNaming(t *testing.T) {
	q := &Queue{prefix: "records"}
	if q.ingestedSubject() != "records.ingested" {
		t.Fatalf("unexpected subject %q", q.ingestedSubject())
	}
	if q.reindexSubject() != "records.reindex" {
		t.Fatalf("unexpected subject %q", q.reindexSubject())
	}
}
