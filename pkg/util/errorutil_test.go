package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToDomainError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "domain error passes through",
			err:        NewForbidden("Access Denied"),
			wantCode:   "FORBIDDEN",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("gate: %w", NewUnauthorizedCause("TOKEN_EXPIRED", "Token has expired", cause)),
			wantCode:   "TOKEN_EXPIRED",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "fiber not found",
			err:        fiber.ErrNotFound,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "fiber bad request",
			err:        fiber.NewError(http.StatusBadRequest, "invalid payload"),
			wantCode:   "VALIDATION_FAILED",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "plain error is internal",
			err:        cause,
			wantCode:   "INTERNAL_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, tt.wantStatus)
			}
		})
	}

	if ToDomainError(nil) != nil {
		t.Error("ToDomainError(nil) should be nil")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("signature is invalid")
	err := NewUnauthorizedCause("TOKEN_INVALID", "Invalid token", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if got := err.Error(); got != "Invalid token: signature is invalid" {
		t.Errorf("Error() = %q", got)
	}
}
