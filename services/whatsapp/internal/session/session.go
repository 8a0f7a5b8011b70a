package session

import (
	"context"
	"errors"

	"mixmeet/pkg/domain"
)

// ErrNotConnected means the messaging session is not paired or logged in.
var ErrNotConnected = errors.New("messaging session is not logged in")

// Session is the connection to the messaging network. The HTTP layer and the
// application depend on this interface only; the production implementation
// wraps whatsmeow.
type Session interface {
	// Status reports connection state. While the session waits for pairing,
	// QR carries the code to scan.
	Status() domain.GatewayStatus
	// SendText delivers a text message to the phone number (digits only).
	SendText(ctx context.Context, phoneNumber, text string) error
	// NumberExists reports whether the phone number is registered on the
	// network.
	NumberExists(ctx context.Context, phoneNumber string) (bool, error)
}
