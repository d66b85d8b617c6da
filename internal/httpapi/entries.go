package httpapi

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/ledger"
)

// timeNow is swapped out by tests that pin the reference date.
var timeNow = time.Now

// POST /v1/entries
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := r.Context().Value(ctxKeyPostEntry).(ledger.Entry)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	saved, err := s.ledger.Add(r.Context(), e)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(saved))
}

// GET /v1/entries?user_id=
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyListEntries).(listEntriesQuery)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	entries, err := s.ledger.ListByOwner(r.Context(), q.UserID)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	items := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, listEntriesResponse{Items: items})
}

// DELETE /v1/entries/{id}?user_id=
// Deleting an id that is not present returns 204 all the same.
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
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
	if err := s.ledger.Delete(r.Context(), userID, entryID); err != nil {
		s.writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/summary?user_id=[&today=]
func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeySummary).(summaryQuery)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	today := q.Today
	if today == "" {
		today = ledger.NewDate(timeNow())
	}
	sum, err := s.ledger.Summary(r.Context(), q.UserID, today)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSummaryResponse(sum))
}
