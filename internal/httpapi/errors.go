package httpapi

import (
	"errors"
	"net/http"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/service/auth"
	"github.com/tallyhq/tally/internal/service/ledgersvc"
)

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func unauthorized(w http.ResponseWriter) {
	writeErr(w, http.StatusUnauthorized, "incorrect credentials", "unauthorized")
}
func conflict(w http.ResponseWriter, msg string) { writeErr(w, http.StatusConflict, msg, "conflict") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeServiceErr maps domain sentinel errors onto HTTP statuses. Anything
// unrecognized becomes a 500 without leaking internals.
func (s *Server) writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrEmptyUsername), errors.Is(err, auth.ErrEmptyPassword):
		badRequest(w, err.Error())
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, err.Error())
	case errors.Is(err, errs.ErrUnprocessable):
		code, msg := mapValidationError(err)
		unprocessable(w, msg, code)
	case errors.Is(err, errs.ErrUnauthorized):
		unauthorized(w)
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "not_found")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, "username already taken")
	default:
		s.log.Error("internal error", "err", err)
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}

// mapValidationError normalizes domain validation errors into a code and message.
func mapValidationError(err error) (code, msg string) {
	if err == nil {
		return "", ""
	}
	msg = err.Error()
	switch {
	case errors.Is(err, ledgersvc.ErrInvalidAmount):
		return "invalid_amount", msg
	case errors.Is(err, ledgersvc.ErrInvalidKind):
		return "invalid_kind", msg
	case errors.Is(err, ledgersvc.ErrInvalidDate):
		return "invalid_date", msg
	case errors.Is(err, ledgersvc.ErrUnknownCategory):
		return "unknown_category", msg
	case errors.Is(err, ledgersvc.ErrCurrencyMismatch):
		return "currency_mismatch", msg
	default:
		return "validation_error", msg
	}
}
