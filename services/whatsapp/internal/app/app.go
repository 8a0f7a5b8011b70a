package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mixmeet/pkg/domain"
	"mixmeet/services/whatsapp/internal/session"
)

const (
	sendTimeout   = 15 * time.Second
	lookupTimeout = 10 * time.Second

	codeMessageTemplate = "Seu código MixMeet é: *%s*. Válido por 5 minutos."
)

// ErrInvalidInput indicates a malformed request.
var ErrInvalidInput = errors.New("invalid input")

// App wraps the messaging session with the gateway's delivery policy:
// bounded waits per outbound call and a fail-open number lookup.
type App struct {
	session session.Session
}

// New constructs the application.
func New(s session.Session) (*App, error) {
	if s == nil {
		return nil, errors.New("session is required")
	}
	return &App{session: s}, nil
}

// Status reports the session connection state.
func (a *App) Status() domain.GatewayStatus {
	return a.session.Status()
}

// SendCode delivers the verification code message. The session must be
// logged in and the send is bounded so a wedged connection cannot hold the
// caller forever.
func (a *App) SendCode(ctx context.Context, phoneNumber, code string) error {
	phone, err := sanitizedPhone(phoneNumber)
	if err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if !a.session.Status().Ready {
		return session.ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := a.session.SendText(ctx, phone, fmt.Sprintf(codeMessageTemplate, code)); err != nil {
		return fmt.Errorf("send code message: %w", err)
	}
	return nil
}

// CheckNumber reports whether the phone number is registered. A lookup
// failure reports true so a flaky network check never blocks a real user.
func (a *App) CheckNumber(ctx context.Context, phoneNumber string) (bool, error) {
	phone, err := sanitizedPhone(phoneNumber)
	if err != nil {
		return false, err
	}
	if !a.session.Status().Ready {
		return false, session.ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	exists, err := a.session.NumberExists(ctx, phone)
	if err != nil {
		slog.Warn("number lookup failed, assuming number exists", "err", err)
		return true, nil
	}
	return exists, nil
}

func sanitizedPhone(raw string) (string, error) {
	phone := domain.SanitizePhone(raw)
	if phone == "" {
		return "", fmt.Errorf("%w: phoneNumber is required", ErrInvalidInput)
	}
	return phone, nil
}
