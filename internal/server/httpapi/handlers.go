package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/dmitrijs2005/attendkeeper/internal/server/attendance"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type attendanceRequest struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Server is up and running!"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := s.users.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully!"})
	case errors.Is(err, common.ErrorAlreadyExists):
		respondError(w, http.StatusBadRequest, "User already exists!")
	case errors.Is(err, common.ErrorValidation):
		respondError(w, http.StatusBadRequest, "Invalid username or password")
	default:
		s.logger.Error(r.Context(), "register failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"token": token})
	case errors.Is(err, common.ErrorUnauthorized):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		s.logger.Error(r.Context(), "login failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleLogAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.attendance.Verify(r.Context(), claims.Username, req.Image)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.attendance.History(r.Context(), claims.Username, limit)
	if err != nil {
		s.logger.Error(r.Context(), "list attendance failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Error reading attendance log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// respondFailure maps a pipeline error to its status code and body.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	var e *attendance.Error
	if !errors.As(err, &e) {
		s.logger.Error(r.Context(), "unexpected error", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch e.Class {
	case attendance.ClassAuth:
		status = http.StatusForbidden
		if e.Kind == attendance.MissingCredential {
			status = http.StatusUnauthorized
		}
	case attendance.ClassValidation:
		status = http.StatusBadRequest
	}

	respondJSON(w, status, errorResponse{Error: e.Message(), Details: e.Detail})
}
