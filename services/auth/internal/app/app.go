package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mixmeet/internal/usertoken"
	"mixmeet/pkg/domain"
	"mixmeet/services/auth/internal/waclient"
)

// Config holds runtime configuration for the auth application.
type Config struct {
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	TokenTTL      time.Duration
	Gateway       *waclient.Client
}

// App owns the phone verification flow: code issuance over the messaging
// gateway and access-token minting once a code checks out.
type App struct {
	codes   *codeStore
	issuer  *usertoken.Issuer
	gateway *waclient.Client
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	codes, err := newCodeStore(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("init code store: %w", err)
	}
	issuer, err := usertoken.NewIssuer(usertoken.IssuerConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}
	return &App{
		codes:   codes,
		issuer:  issuer,
		gateway: cfg.Gateway,
	}, nil
}

// RequestCode issues a verification code and hands it to the gateway for
// delivery. The gateway must be logged in before a code is even generated,
// so users are not told to wait for a message that cannot arrive.
func (a *App) RequestCode(phoneNumber string) error {
	phone, err := sanitizedPhone(phoneNumber)
	if err != nil {
		return err
	}
	if !a.gatewayReady() {
		return ErrGatewayUnavailable
	}
	code, err := a.codes.Create(phone)
	if err != nil {
		return err
	}
	if err := a.gateway.SendCode(phone, code); err != nil {
		a.codes.Drop(phone)
		slog.Warn("code delivery failed", "err", err)
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return nil
}

// VerifyCode consumes the live code and mints an access token whose subject
// is the verified phone number.
func (a *App) VerifyCode(phoneNumber, code string) (string, int, error) {
	phone, err := sanitizedPhone(phoneNumber)
	if err != nil {
		return "", 0, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", 0, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if err := a.codes.Verify(phone, code); err != nil {
		return "", 0, err
	}
	token, expiresAt, err := a.issuer.Issue(phone)
	if err != nil {
		return "", 0, fmt.Errorf("issue token: %w", err)
	}
	expiresIn := int(time.Until(expiresAt).Round(time.Second).Seconds())
	return token, expiresIn, nil
}

// CheckExistence reports whether the phone number has a messaging account.
// Any gateway failure reports true so an outage never locks users out.
func (a *App) CheckExistence(phoneNumber string) (bool, error) {
	phone, err := sanitizedPhone(phoneNumber)
	if err != nil {
		return false, err
	}
	if !a.gatewayReady() {
		return true, nil
	}
	exists, err := a.gateway.CheckNumber(phone)
	if err != nil {
		slog.Warn("existence check failed, assuming number exists", "err", err)
		return true, nil
	}
	return exists, nil
}

// GatewayStatus proxies the gateway connection state.
func (a *App) GatewayStatus() (domain.GatewayStatus, error) {
	return a.gateway.Status()
}

func (a *App) gatewayReady() bool {
	status, err := a.gateway.Status()
	if err != nil {
		slog.Warn("gateway status check failed", "err", err)
		return false
	}
	return status.Ready
}

func sanitizedPhone(raw string) (string, error) {
	phone := domain.SanitizePhone(raw)
	if phone == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	return phone, nil
}
