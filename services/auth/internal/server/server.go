package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mixmeet/internal/ratelimit"
	"mixmeet/internal/util"
	"mixmeet/services/auth/internal/app"
)

const rateWindow = time.Minute

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                           *app.App
	RedisAddr                     string
	RedisPassword                 string
	RequestCodeRateLimitPerMinute int
	TrustedProxies                *util.TrustedProxies
}

// Server exposes HTTP endpoints for the auth service.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	requestLimiter *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	limit := cfg.RequestCodeRateLimitPerMinute
	if limit <= 0 {
		limit = 10
	}
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(
		cfg.RedisAddr, cfg.RedisPassword, "mixmeet:auth:ratelimit:request-code", limit, rateWindow)
	if err != nil {
		return nil, fmt.Errorf("init request-code limiter: %w", err)
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		requestLimiter: limiter,
		trustedProxies: cfg.TrustedProxies,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("auth", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/auth/request-code", s.handleRequestCode)
	s.mux.HandleFunc("/api/auth/verify-code", s.handleVerifyCode)
	s.mux.HandleFunc("/api/auth/check-wa-existence", s.handleCheckExistence)
	s.mux.HandleFunc("/api/auth/whatsapp/status", s.handleGatewayStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type phoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r) {
		return
	}
	var req phoneRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.RequestCode(req.PhoneNumber); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type verifyCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req verifyCodeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, expiresIn, err := s.app.VerifyCode(req.PhoneNumber, req.Code)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
	})
}

func (s *Server) handleCheckExistence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req phoneRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	exists, err := s.app.CheckExistence(req.PhoneNumber)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *Server) handleGatewayStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	status, err := s.app.GatewayStatus()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "messaging gateway unavailable")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.requestLimiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many verification code requests")
	return false
}

// writeAppError maps application sentinels onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, app.ErrCodeInvalid), errors.Is(err, app.ErrCodeExpired):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "invalid or expired verification code")
	case errors.Is(err, app.ErrGatewayUnavailable):
		writeError(w, http.StatusServiceUnavailable, "messaging gateway unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
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
		Code:      errorCodeForAuth(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForAuth(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case strings.Contains(message, "verification code"):
		if status == http.StatusUnauthorized {
			return "AUTH_CODE_INVALID"
		}
		if status == http.StatusTooManyRequests {
			return "AUTH_RATE_LIMITED"
		}
		return "AUTH_INVALID_REQUEST"
	case status == http.StatusTooManyRequests:
		return "AUTH_RATE_LIMITED"
	case status == http.StatusServiceUnavailable:
		return "AUTH_GATEWAY_UNAVAILABLE"
	case status == http.StatusBadRequest:
		return "AUTH_INVALID_REQUEST"
	case status == http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
