package httpadapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		kind error
		want int
	}{
		{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrEmptyInput, http.StatusBadRequest},
		{domain.ErrRecordNotFound, http.StatusNotFound},
		{domain.ErrInputTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrMalformedOutput, http.StatusUnprocessableEntity},
		{domain.ErrEmptyResponse, http.StatusUnprocessableEntity},
		{domain.ErrModelUnavailable, http.StatusBadGateway},
		{domain.ErrIndexUnavailable, http.StatusBadGateway},
		{domain.ErrTemporary, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		err := domain.WrapError(tc.kind, "op", errors.New("boom"))
		if got := mapErrorToHTTPStatus(err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.kind, tc.want, got)
		}
	}

	if got := mapErrorToHTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("unclassified error expected 500, got %d", got)
	}
}
