package authority

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinidoc/actd/internal/auth"
	"github.com/clinidoc/actd/internal/build"
)

type checkResponse struct {
	Active    bool   `json:"active"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type mutationRequest struct {
	Active  *bool  `json:"active"`
	Message string `json:"message"`
}

type mutationResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Status  Snapshot `json:"status"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type statusResponse struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Active *bool  `json:"active,omitempty"`
}

func (srv *Server) routes(r chi.Router) {
	r.Get("/health", srv.handleHealth)
	r.Get("/api/status", srv.handleStatus)
	r.Get("/api/check_activation", srv.handleCheckActivation)
	r.Post("/api/set_activation", srv.handleSetActivation)
	r.Post("/admin/activate", srv.handleActivate)
	r.Post("/admin/deactivate", srv.handleDeactivate)
}

func (srv *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
	})
}

func (srv *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Service:   build.AppName + " Activation Service",
		Status:    "running",
		Timestamp: timestamp(),
		Version:   build.Version,
	})
}

func (srv *Server) handleCheckActivation(w http.ResponseWriter, r *http.Request) {
	if !srv.authorize(w, r, auth.RoleMember, true) {
		return
	}
	snap := srv.state.Snapshot()
	writeJSON(w, http.StatusOK, checkResponse{
		Active:    snap.Active,
		Message:   snap.Message,
		Timestamp: timestamp(),
	})
}

func (srv *Server) handleSetActivation(w http.ResponseWriter, r *http.Request) {
	if !srv.authorize(w, r, auth.RoleAdmin, false) {
		return
	}

	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No JSON data provided"})
		return
	}
	// An empty object (or null) carries no mutation and is rejected the
	// same as a missing body.
	if req.Active == nil && req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No JSON data provided"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	message := req.Message
	if message == "" {
		message = updatedMessage
	}

	snap := srv.setState(r.Context(), active, message)
	writeJSON(w, http.StatusOK, mutationResponse{
		Success: true,
		Message: "Activation status updated",
		Status:  snap,
	})
}

func (srv *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if !srv.authorize(w, r, auth.RoleAdmin, false) {
		return
	}
	snap := srv.setState(r.Context(), true, activateMessage)
	writeJSON(w, http.StatusOK, mutationResponse{
		Success: true,
		Message: "Application activated",
		Status:  snap,
	})
}

func (srv *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if !srv.authorize(w, r, auth.RoleAdmin, false) {
		return
	}
	snap := srv.setState(r.Context(), false, deactivateMessage)
	writeJSON(w, http.StatusOK, mutationResponse{
		Success: true,
		Message: "Application deactivated",
		Status:  snap,
	})
}

// authorize validates the bearer credential against the required scope and
// writes the error response itself on failure. A missing or malformed
// header is always 401, before any scope consideration; a known token with
// insufficient scope is 403. Clients branch on this ordering.
func (srv *Server) authorize(w http.ResponseWriter, r *http.Request, required auth.Role, includeActive bool) bool {
	token, ok := auth.BearerToken(r)
	if !ok {
		srv.writeAuthError(w, http.StatusUnauthorized, "Missing or invalid authorization header", includeActive)
		return false
	}
	_, err := srv.tokens.Authorize(token, required)
	switch {
	case errors.Is(err, auth.ErrForbidden):
		srv.writeAuthError(w, http.StatusForbidden, "Admin privileges required", includeActive)
		return false
	case err != nil:
		srv.writeAuthError(w, http.StatusUnauthorized, "Invalid API key", includeActive)
		return false
	}
	return true
}

func (srv *Server) writeAuthError(w http.ResponseWriter, status int, message string, includeActive bool) {
	resp := errorResponse{Error: message}
	if includeActive {
		inactive := false
		resp.Active = &inactive
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
