package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	authsvc "github.com/dropDatabas3/consentd/internal/service/authorisation"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"app error passthrough", ErrConsentUnknown, "CONSENT_UNKNOWN", http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("ctx: %w", ErrTokenInvalid), "TOKEN_INVALID", http.StatusUnauthorized},
		{"opaque token", opaque.ErrNotDecryptable, "TOKEN_NOT_DECRYPTABLE", http.StatusInternalServerError},
		{"opaque encrypt", opaque.ErrEncryptionFailed, "ENCRYPTION_FAILED", http.StatusInternalServerError},
		{"not found", repository.ErrNotFound, "RESOURCE_UNKNOWN", http.StatusNotFound},
		{"invalid input", fmt.Errorf("%w: bad", repository.ErrInvalidInput), "FORMAT_ERROR", http.StatusBadRequest},
		{"frequency required", consentsvc.ErrFrequencyPerDayRequired, "MISSING_FIELDS", http.StatusBadRequest},
		{"consent finalised", consentsvc.ErrStatusFinalised, "STATUS_INVALID", http.StatusConflict},
		{"auth finalised", authsvc.ErrStatusFinalised, "STATUS_INVALID", http.StatusConflict},
		{"parent finalised", authsvc.ErrParentFinalised, "STATUS_INVALID", http.StatusConflict},
		{"unknown sca status", authsvc.ErrUnknownStatus, "FORMAT_ERROR", http.StatusBadRequest},
		{"psu mismatch", authsvc.ErrPsuMismatch, "PSU_CREDENTIALS_INVALID", http.StatusUnauthorized},
		{"usage limit", usagesvc.ErrUsageLimitExceeded, "ACCESS_EXCEEDED", http.StatusTooManyRequests},
		{"consent not usable", usagesvc.ErrConsentNotUsable, "STATUS_INVALID", http.StatusConflict},
		{"unknown error", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := FromError(tc.err)
			if got.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", got.Code, tc.wantCode)
			}
			if got.HTTPStatus != tc.wantStatus {
				t.Fatalf("status = %d, want %d", got.HTTPStatus, tc.wantStatus)
			}
		})
	}
}

func TestFromError_PreservesCause(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("%w: consent x", repository.ErrNotFound)
	appErr := FromError(cause)
	if !errors.Is(appErr, repository.ErrNotFound) {
		t.Fatal("la causa original debe seguir siendo alcanzable con errors.Is")
	}
}

func TestWriteError(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	WriteError(rec, ErrAccessExceeded.WithDetail("limite diario alcanzado"))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "ACCESS_EXCEEDED" || body.Detail != "limite diario alcanzado" {
		t.Fatalf("body inesperado: %+v", body)
	}
}
