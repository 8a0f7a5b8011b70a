package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"mixmeet/internal/util"
	"mixmeet/services/whatsapp/internal/app"
	"mixmeet/services/whatsapp/internal/session"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes HTTP endpoints for the whatsapp gateway service.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("whatsapp", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/whatsapp/status", s.handleStatus)
	s.mux.HandleFunc("/api/whatsapp/send-code", s.handleSendCode)
	s.mux.HandleFunc("/api/whatsapp/check-number", s.handleCheckNumber)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Status())
}

type sendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req sendCodeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.SendCode(r.Context(), req.PhoneNumber, req.Code); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrNotConnected):
			writeError(w, http.StatusServiceUnavailable, "session is not logged in")
		default:
			writeError(w, http.StatusInternalServerError, "message delivery failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type checkNumberRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

func (s *Server) handleCheckNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req checkNumberRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	exists, err := s.app.CheckNumber(r.Context(), req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrNotConnected):
			writeError(w, http.StatusServiceUnavailable, "session is not logged in")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
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
		Code:      errorCodeForGateway(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForGateway(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case status == http.StatusServiceUnavailable:
		return "GATEWAY_NOT_LOGGED_IN"
	case message == "message delivery failed":
		return "GATEWAY_SEND_FAILED"
	case status == http.StatusBadRequest:
		return "GATEWAY_INVALID_REQUEST"
	case status == http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
