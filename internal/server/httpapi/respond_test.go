package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation keeps details", fmt.Errorf("%w: name: cannot be blank", common.ErrValidation), http.StatusBadRequest, "validation error: name: cannot be blank"},
		{"invalid otp", common.ErrInvalidOTP, http.StatusUnauthorized, "invalid otp"},
		{"expired otp", common.ErrExpiredOTP, http.StatusUnauthorized, "otp expired"},
		{"unauthenticated with cause", fmt.Errorf("%w: %v", common.ErrUnauthenticated, common.ErrTokenExpired), http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", common.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"category not found", common.ErrCategoryNotFound, http.StatusNotFound, "category not found"},
		{"recipient not found", common.ErrRecipientNotFound, http.StatusNotFound, "recipient not found"},
		{"not found", common.ErrorNotFound, http.StatusNotFound, "not found"},
		{"duplicate email", common.ErrDuplicateEmail, http.StatusConflict, common.ErrDuplicateEmail.Error()},
		{"duplicate category", common.ErrDuplicateCategory, http.StatusConflict, "category already exists"},
		{"already claimed", common.ErrAlreadyClaimed, http.StatusConflict, "certificate already claimed"},
		{"rate limited", common.ErrRateLimited, http.StatusTooManyRequests, "too many requests"},
		{"dispatch hides cause", fmt.Errorf("%w: %v", common.ErrOTPDispatch, errBoom{}), http.StatusServiceUnavailable, common.ErrOTPDispatch.Error()},
		{"id exhaustion is internal", common.ErrIDGenerationExhausted, http.StatusInternalServerError, "internal server error"},
		{"unknown is hidden", errBoom{}, http.StatusInternalServerError, "internal server error"},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "file too large, limit is 10 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := translate(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}
