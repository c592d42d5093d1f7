package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
)

const (
	statusOK   = 0
	statusFail = 1

	maxJSONBody = 1 << 20
)

// envelope is the body of every API response.
type envelope struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   any    `json:"data,omitempty"`
	Token  string `json:"token,omitempty"`
}

var errorStatuses = []struct {
	target error
	status int
}{
	{common.ErrValidation, http.StatusBadRequest},
	{common.ErrInvalidOTP, http.StatusUnauthorized},
	{common.ErrExpiredOTP, http.StatusUnauthorized},
	{common.ErrUnauthenticated, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrCategoryNotFound, http.StatusNotFound},
	{common.ErrRecipientNotFound, http.StatusNotFound},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrDuplicateEmail, http.StatusConflict},
	{common.ErrDuplicateCategory, http.StatusConflict},
	{common.ErrAlreadyClaimed, http.StatusConflict},
	{common.ErrConflict, http.StatusConflict},
	{common.ErrRateLimited, http.StatusTooManyRequests},
	{common.ErrOTPDispatch, http.StatusServiceUnavailable},
}

// translate maps a service error onto a status code and a client-facing
// message. Validation errors keep their field details; everything else is
// reduced to the sentinel text, and unknown errors are hidden.
func translate(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("file too large, limit is %d bytes", tooLarge.Limit)
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			if e.target == common.ErrValidation {
				return e.status, err.Error()
			}
			return e.status, e.target.Error()
		}
	}

	return http.StatusInternalServerError, "internal server error"
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Status: statusOK, Msg: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: statusFail, Msg: msg})
}

// writeError translates err and logs what the client does not get to see.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, msg := translate(err)

	switch {
	case errors.Is(err, common.ErrIDGenerationExhausted):
		a.logger.Error(ctx, "certificate id space exhausted", "error", err)
	case status == http.StatusServiceUnavailable:
		a.logger.Warn(ctx, "request degraded", "path", r.URL.Path, "error", err)
	case status >= http.StatusInternalServerError:
		a.logger.Error(ctx, "request failed", "path", r.URL.Path, "error", err)
	}

	fail(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", common.ErrValidation, err)
	}
	return nil
}
