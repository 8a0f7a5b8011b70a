package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "modernc.org/sqlite"

	"mixmeet/pkg/domain"
)

const reconnectDelay = 2 * time.Second

// WhatsmeowConfig configures the production session driver.
type WhatsmeowConfig struct {
	// StorePath is the sqlite file holding pairing credentials.
	StorePath string
	LogLevel  string
}

// WhatsmeowSession implements Session on top of whatsmeow with a sqlite
// credential store. Lost connections are retried with a fixed delay; a
// logged-out session re-enters QR pairing.
type WhatsmeowSession struct {
	client *whatsmeow.Client

	mu        sync.Mutex
	connected bool
	qr        string

	retry chan struct{}
}

// NewWhatsmeow opens the credential store and prepares the client. The
// session does not connect until Run is called.
func NewWhatsmeow(cfg WhatsmeowConfig) (*WhatsmeowSession, error) {
	storePath := cfg.StorePath
	if storePath == "" {
		storePath = "whatsapp.db"
	}
	logLevel := strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	switch logLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	case "WARNING":
		logLevel = "WARN"
	default:
		logLevel = "WARN"
	}
	container, err := sqlstore.New("sqlite",
		fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", storePath),
		waLog.Stdout("session-db", logLevel, true))
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	device, err := container.GetFirstDevice()
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	client := whatsmeow.NewClient(device, waLog.Stdout("session", logLevel, true))
	// Reconnects are driven by Run so the delay policy stays in one place.
	client.EnableAutoReconnect = false

	s := &WhatsmeowSession{
		client: client,
		retry:  make(chan struct{}, 1),
	}
	client.AddEventHandler(s.handleEvent)
	return s, nil
}

// Run connects and keeps the session alive until the context is cancelled.
// Each reconnect attempt waits a fixed delay after the previous loss.
func (s *WhatsmeowSession) Run(ctx context.Context) error {
	for {
		if err := s.connect(ctx); err != nil {
			slog.Error("session connect failed", "err", err)
			s.signalRetry()
		}
		select {
		case <-ctx.Done():
			s.client.Disconnect()
			return ctx.Err()
		case <-s.retry:
		}
		select {
		case <-ctx.Done():
			s.client.Disconnect()
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
		slog.Info("reconnecting session")
	}
}

func (s *WhatsmeowSession) connect(ctx context.Context) error {
	if s.client.Store.ID == nil {
		// Never paired (or logged out): pairing codes arrive on the QR
		// channel, which must be requested before connecting.
		qrChan, err := s.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("request qr channel: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					s.setQR(evt.Code)
				} else {
					s.setQR("")
				}
			}
		}()
	}
	return s.client.Connect()
}

func (s *WhatsmeowSession) handleEvent(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		slog.Info("session connected")
		s.setConnected(true)
		s.setQR("")
	case *events.Disconnected:
		slog.Warn("session disconnected")
		s.setConnected(false)
		s.signalRetry()
	case *events.LoggedOut:
		slog.Warn("session logged out, pairing required")
		s.setConnected(false)
		s.setQR("")
		s.signalRetry()
	}
}

// Status reports connection state.
func (s *WhatsmeowSession) Status() domain.GatewayStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := domain.GatewayStatus{Ready: s.connected}
	if !s.connected {
		status.QR = s.qr
	}
	return status
}

// SendText delivers a text message to the phone number.
func (s *WhatsmeowSession) SendText(ctx context.Context, phoneNumber, text string) error {
	jid := types.NewJID(phoneNumber, types.DefaultUserServer)
	_, err := s.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: proto.String(text),
	})
	return err
}

// NumberExists checks network registration for the phone number.
func (s *WhatsmeowSession) NumberExists(ctx context.Context, phoneNumber string) (bool, error) {
	type lookup struct {
		exists bool
		err    error
	}
	done := make(chan lookup, 1)
	go func() {
		responses, err := s.client.IsOnWhatsApp([]string{"+" + phoneNumber})
		if err != nil {
			done <- lookup{err: err}
			return
		}
		if len(responses) == 0 {
			done <- lookup{exists: false}
			return
		}
		done <- lookup{exists: responses[0].IsIn}
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case result := <-done:
		return result.exists, result.err
	}
}

func (s *WhatsmeowSession) setConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

func (s *WhatsmeowSession) setQR(code string) {
	s.mu.Lock()
	s.qr = code
	s.mu.Unlock()
}

func (s *WhatsmeowSession) signalRetry() {
	select {
	case s.retry <- struct{}{}:
	default:
	}
}
