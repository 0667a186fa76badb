package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// loginRequest carries the client credentials.
type loginRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		s.writeError(w, r, types.NewError(types.CodeBadRequest, "client_id and client_secret are required"))
		return
	}

	token, expires, err := s.sessions.Login(req.ClientID, req.ClientSecret)
	if err != nil {
		s.logger.Warn("login rejected", slog.String("client_id", req.ClientID))
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, s.sessions.SessionCookie(token, expires))
	writeJSON(w, http.StatusOK, map[string]any{"expires_at": expires})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.sessions.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}
