package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// POST /v1/advice
// Returns 503 when no advice backend is configured.
func (s *Server) postAdvice(w http.ResponseWriter, r *http.Request) {
	if s.adviser == nil {
		writeErr(w, http.StatusServiceUnavailable, "advice is not configured", "advice_unavailable")
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req adviceRequest
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
	user, err := s.users.UserByID(r.Context(), req.UserID)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	entries, err := s.ledger.ListByOwner(r.Context(), user.ID)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	advice, err := s.adviser.Advise(r.Context(), user.Username, entries)
	if err != nil {
		s.log.Error("advice failed", "err", err)
		writeErr(w, http.StatusBadGateway, "could not generate advice", "advice_failed")
		return
	}
	toJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}

// POST /v1/animate
// Turns a prompt, optionally seeded with an uploaded image, into a short
// generated video. Shares the adviser backend with /v1/advice.
func (s *Server) postAnimate(w http.ResponseWriter, r *http.Request) {
	if s.adviser == nil {
		writeErr(w, http.StatusServiceUnavailable, "animation is not configured", "advice_unavailable")
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req animateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Prompt == "" {
		badRequest(w, "prompt is required")
		return
	}
	if req.ImageBase64 != "" && req.MimeType == "" {
		badRequest(w, "mime_type is required with image_base64")
		return
	}
	uri, err := s.adviser.AnimateImage(r.Context(), req.Prompt, req.ImageBase64, req.MimeType)
	if err != nil {
		s.log.Error("animation failed", "err", err)
		writeErr(w, http.StatusBadGateway, "could not generate video", "animation_failed")
		return
	}
	toJSON(w, http.StatusOK, animateResponse{VideoURI: uri})
}
