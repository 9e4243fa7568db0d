package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	client "github.com/mamadbah2/stockroom/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestSendOutboundUsesDefaultRecipient(t *testing.T) {
	fc := &fakeClient{}
	m := NewWhatsAppMessenger(fc, "48500100200", nil)

	if err := m.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "Niski stan: rura"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fc.sent) != 1 || fc.sent[0].To != "48500100200" || fc.sent[0].Body != "Niski stan: rura" {
		t.Fatalf("unexpected requests %+v", fc.sent)
	}

	if err := m.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "48999", Message: "x"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if fc.sent[1].To != "48999" {
		t.Errorf("expected explicit recipient, got %s", fc.sent[1].To)
	}
}

func TestSendOutboundSplitsLongMessages(t *testing.T) {
	fc := &fakeClient{}
	m := NewWhatsAppMessenger(fc, "1", nil)

	msg := strings.Repeat(strings.Repeat("a", 999)+"\n", 10)
	if err := m.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: msg}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fc.sent) != 3 {
		t.Errorf("expected 3 parts, got %d", len(fc.sent))
	}
}

func TestSendOutboundErrors(t *testing.T) {
	disabled := NewWhatsAppMessenger(nil, "1", nil)
	if disabled.Enabled() {
		t.Error("expected messenger without client to be disabled")
	}
	if err := disabled.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "x"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}

	m := NewWhatsAppMessenger(&fakeClient{}, "", nil)
	if err := m.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("expected ErrNoRecipient, got %v", err)
	}
	if err := m.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "  "}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}

	boom := errors.New("boom")
	failing := NewWhatsAppMessenger(&fakeClient{err: boom}, "1", nil)
	if err := failing.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "x"}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped client error, got %v", err)
	}
}
