package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	client "github.com/mamadbah2/stockroom/pkg/clients/whatsapp"
)

var (
	// ErrDisabled is returned when no messaging credentials are configured.
	ErrDisabled = errors.New("notifications are disabled")
	// ErrNoRecipient is returned when neither the request nor the config names a recipient.
	ErrNoRecipient = errors.New("no recipient")
	// ErrEmptyMessage is returned for blank message bodies.
	ErrEmptyMessage = errors.New("message must not be empty")
)

const sendTimeout = 10 * time.Second

// Messenger pushes text notifications to warehouse staff.
type Messenger interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	Enabled() bool
}

// WhatsAppMessenger is the production implementation backed by WhatsApp Cloud API.
type WhatsAppMessenger struct {
	client    client.Client
	recipient string
	logger    *zap.Logger
}

// NewWhatsAppMessenger wires a messenger. A nil client yields a disabled messenger.
func NewWhatsAppMessenger(c client.Client, recipient string, logger *zap.Logger) *WhatsAppMessenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppMessenger{client: c, recipient: recipient, logger: logger}
}

// Enabled reports whether messages can be delivered.
func (m *WhatsAppMessenger) Enabled() bool {
	return m != nil && m.client != nil
}

// SendOutbound delivers req.Message, split into as many texts as the API requires.
func (m *WhatsAppMessenger) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if strings.TrimSpace(req.Message) == "" {
		return ErrEmptyMessage
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = m.recipient
	}
	if to == "" {
		return ErrNoRecipient
	}

	chunks := client.SplitBody(req.Message)
	for i, body := range chunks {
		if err := m.send(ctx, to, body, req.PreviewURL); err != nil {
			return fmt.Errorf("send part %d of %d: %w", i+1, len(chunks), err)
		}
	}

	m.logger.Info("outbound message sent", zap.String("to", to), zap.Int("parts", len(chunks)))
	return nil
}

func (m *WhatsAppMessenger) send(ctx context.Context, to, body string, preview bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := m.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: preview,
	})
	return err
}
