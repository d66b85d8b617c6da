package httpapi

import (
	"net/http"
	"strings"
)

// POST /v1/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCredentials).(credentialsRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	user, sess, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, sessionResponse{
		User:  userResponse{ID: user.ID, Username: user.Username},
		Token: sess.Token,
	})
}

// POST /v1/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCredentials).(credentialsRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	user, sess, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, sessionResponse{
		User:  userResponse{ID: user.ID, Username: user.Username},
		Token: sess.Token,
	})
}

// POST /v1/auth/logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := parseBearerToken(r)
	if !ok {
		unauthorized(w)
		return
	}
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/auth/session
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	token, ok := parseBearerToken(r)
	if !ok {
		unauthorized(w)
		return
	}
	user, err := s.auth.SessionUser(r.Context(), token)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, userResponse{ID: user.ID, Username: user.Username})
}

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}
