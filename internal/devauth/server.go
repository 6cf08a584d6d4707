package devauth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/MrEthical07/portalauth/internal/rate"
	"github.com/MrEthical07/portalauth/password"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PortalAccessLevel string `json:"portalAccessLevel"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Router returns the auth API. Mount it at the auth base path, for example
// "/api/auth".
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)
	return r
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, u, err := s.Login(r.Context(), req.Email, req.Password, clientIP(r))
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, loginResponse{Token: token, Role: u.Role, Name: u.Name})
	case errors.Is(err, ErrUserNotFound):
		respondMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrInvalidPassword):
		respondMessage(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, rate.ErrRateLimited):
		respondMessage(w, http.StatusTooManyRequests, "Too many failed attempts")
	default:
		s.logger.Error("login failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Login failed")
	}
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := s.Register(r.Context(), req.Name, req.Email, req.Password, req.PortalAccessLevel)
	switch {
	case err == nil:
		respondMessage(w, http.StatusCreated, "User registered")
	case errors.Is(err, ErrUserExists):
		respondMessage(w, http.StatusConflict, "User already exists")
	case errors.Is(err, ErrInvalidRole):
		respondMessage(w, http.StatusBadRequest, "Invalid portal access level")
	case errors.Is(err, ErrInvalidEmail):
		respondMessage(w, http.StatusBadRequest, "Invalid email")
	case errors.Is(err, password.ErrTooShort):
		respondMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
	default:
		s.logger.Error("register failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Registration failed")
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, messageResponse{Message: msg})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
