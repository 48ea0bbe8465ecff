package whatsapp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	client "github.com/mamadbah2/isp-dashboard/pkg/clients/whatsapp"
)

// Notifier sends operator summaries over WhatsApp.
type Notifier struct {
	client    client.Client
	recipient string
	logger    *zap.Logger
}

// NewNotifier wires a notifier that messages recipient.
func NewNotifier(c client.Client, recipient string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{client: c, recipient: recipient, logger: logger}
}

// Name identifies the notifier in logs.
func (n *Notifier) Name() string {
	return "whatsapp"
}

// Notify sends the subject in bold followed by the body.
func (n *Notifier) Notify(ctx context.Context, subject, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	id, err := n.client.SendText(ctxWithTimeout, n.recipient, fmt.Sprintf("*%s*\n\n%s", subject, body))
	if err != nil {
		return err
	}

	n.logger.Debug("whatsapp summary sent", zap.String("to", n.recipient), zap.String("message_id", id))
	return nil
}
