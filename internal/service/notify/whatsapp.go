package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	client "github.com/farmtrack/nightcheck/pkg/clients/whatsapp"
)

// WhatsAppRelay forwards stored alerts to a WhatsApp recipient.
type WhatsAppRelay struct {
	client    client.Client
	recipient string
	logger    *zap.Logger
}

// NewWhatsAppRelay wires a relay sending every alert to recipient.
func NewWhatsAppRelay(c client.Client, recipient string, logger *zap.Logger) *WhatsAppRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppRelay{client: c, recipient: recipient, logger: logger}
}

// Relay sends the notification title and message as one text message.
func (r *WhatsAppRelay) Relay(ctx context.Context, n models.Notification) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, err := r.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   r.recipient,
		Body: formatAlert(n),
	})
	if err != nil {
		return fmt.Errorf("relay notification %s: %w", n.ID.Hex(), err)
	}

	fields := []zap.Field{zap.String("farm_id", n.FarmID), zap.String("notification_id", n.ID.Hex())}
	if resp != nil && len(resp.Messages) > 0 {
		fields = append(fields, zap.String("message_id", resp.Messages[0].ID))
	}
	r.logger.Info("alert relayed to whatsapp", fields...)
	return nil
}

func formatAlert(n models.Notification) string {
	if n.FarmID == "" {
		return fmt.Sprintf("*%s*\n%s", n.Title, n.Message)
	}
	return fmt.Sprintf("*%s* (farm %s)\n%s", n.Title, n.FarmID, n.Message)
}
