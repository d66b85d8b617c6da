package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/ledger"
)

type ctxKey string

const ctxKeyCredentials ctxKey = "validatedCredentials"
const ctxKeyPostEntry ctxKey = "validatedPostEntry"
const ctxKeyListEntries ctxKey = "validatedListEntries"
const ctxKeySummary ctxKey = "validatedSummary"

// validateCredentials parses the register/login body and stores it in the
// request context for the handler to use.
func (s *Server) validateCredentials() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req credentialsRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.Username == "" || req.Password == "" {
				badRequest(w, "username and password are required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyCredentials, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostEntry ensures the POST /entries request adheres to business invariants
// and stores the validated entry in the request context for the handler to use.
func (s *Server) validatePostEntry() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postEntryRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.UserID == uuid.Nil {
				badRequest(w, "user_id is required")
				return
			}
			e, err := toEntryDomain(req, s.baseCurrency)
			if err != nil {
				badRequest(w, "invalid currency")
				return
			}
			if err := s.ledger.ValidateEntry(e); err != nil {
				code, msg := mapValidationError(err)
				unprocessable(w, msg, code)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostEntry, e)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateListEntries parses and validates query params for GET /entries.
func (s *Server) validateListEntries() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("user_id")
			if raw == "" {
				badRequest(w, "user_id is required")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid user_id")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyListEntries, listEntriesQuery{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateSummary parses GET /summary query. The optional `today` param pins
// the reference date; it defaults to the current UTC date.
func (s *Server) validateSummary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			raw := q.Get("user_id")
			if raw == "" {
				badRequest(w, "user_id is required")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid user_id")
				return
			}
			query := summaryQuery{UserID: userID}
			if t := q.Get("today"); t != "" {
				d := ledger.Date(t)
				if !d.Valid() {
					badRequest(w, "invalid today: must be YYYY-MM-DD")
					return
				}
				query.Today = d
			}
			ctx := context.WithValue(r.Context(), ctxKeySummary, query)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
