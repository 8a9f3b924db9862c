package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "pdf-extract-viewer/pkg/errors"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestWriteAppError_MapsStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("bad input"), http.StatusBadRequest},
		{apperrors.NewNotFoundError("missing"), http.StatusNotFound},
		{apperrors.NewUnauthorizedError("who are you"), http.StatusUnauthorized},
		{apperrors.NewExtractionError("backend down", nil), http.StatusBadGateway},
		{apperrors.NewStorageError("disk full", nil), http.StatusInternalServerError},
		{errors.New("untyped"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		writeAppError(rr, tc.err)
		if rr.Code != tc.want {
			t.Errorf("writeAppError(%v) status = %d, want %d", tc.err, rr.Code, tc.want)
		}
	}
}
