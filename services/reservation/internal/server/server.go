package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"mixmeet/internal/usertoken"
	"mixmeet/internal/util"
	"mixmeet/pkg/domain"
	"mixmeet/services/reservation/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App           *app.App
	TokenVerifier *usertoken.Verifier
}

// Server exposes HTTP endpoints for the reservation service.
type Server struct {
	app           *app.App
	tokenVerifier *usertoken.Verifier
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	if cfg.TokenVerifier == nil {
		return nil, errors.New("server: token verifier is required")
	}
	s := &Server{
		app:           cfg.App,
		tokenVerifier: cfg.TokenVerifier,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("reservation", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.Handle("/api/reservations", s.withUser(s.handleReservations))
	s.mux.Handle("/api/reservations/", s.withUser(s.handleReservationByID))

	s.mux.Handle("/api/users/me", s.withUser(s.handleMe))
	s.mux.Handle("/api/users/nickname", s.withUser(s.handleNickname))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// phoneHandler receives the verified phone number from the bearer token.
type phoneHandler func(http.ResponseWriter, *http.Request, string)

func (s *Server) withUser(next phoneHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		phone, err := s.tokenVerifier.VerifySubject(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, phone)
	})
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request, phone string) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateReservation(w, r, phone)
	case http.MethodGet:
		s.handleListReservations(w)
	default:
		methodNotAllowed(w)
	}
}

// /api/reservations/{id}
func (s *Server) handleReservationByID(w http.ResponseWriter, r *http.Request, _ string) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/reservations/")
	if raw == "" || strings.Contains(raw, "/") {
		notFound(w, "reservation not found")
		return
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleGetReservation(w, uint(id))
	case http.MethodPut:
		s.handleUpdateReservation(w, r, uint(id))
	case http.MethodDelete:
		s.handleDeleteReservation(w, uint(id))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request, phone string) {
	var req domain.Reservation
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ID = 0
	if strings.TrimSpace(req.Responsible) == "" {
		req.Responsible = phone
	}
	created, err := s.app.CreateReservation(req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/reservations/%d", created.ID))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListReservations(w http.ResponseWriter) {
	reservations, err := s.app.ListReservations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (s *Server) handleGetReservation(w http.ResponseWriter, id uint) {
	reservation, err := s.app.GetReservation(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleUpdateReservation(w http.ResponseWriter, r *http.Request, id uint) {
	var req domain.Reservation
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.UpdateReservation(id, req); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, id uint) {
	if err := s.app.DeleteReservation(id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, phone string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, err := s.app.GetSelf(phone)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) handleNickname(w http.ResponseWriter, r *http.Request, phone string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req nicknameRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.SetNickname(phone, req.Nickname)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// writeAppError maps application sentinels onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrConflict):
		writeError(w, http.StatusConflict, "reservation conflicts with an existing booking")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForReservation(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForReservation(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case status == http.StatusConflict:
		return "RESERVATION_CONFLICT"
	case message == "invalid reservation id":
		return "RESERVATION_INVALID_ID"
	case message == "invalid json body":
		return "RESERVATION_INVALID_REQUEST"
	case message == "reservation not found":
		return "RESERVATION_NOT_FOUND"
	case status == http.StatusNotFound:
		return "RESERVATION_NOT_FOUND"
	case status == http.StatusBadRequest:
		return "RESERVATION_INVALID_REQUEST"
	case status == http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
