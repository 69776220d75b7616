package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	notifyExchange   = "lingopipe.notifications"
	notifyRoutingKey = "notify.job"
)

// message is the payload consumed by the downstream notification service.
type message struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

type amqpNotifier struct {
	channel *amqp.Channel
	logger  *zap.Logger
}

var _ Notifier = (*amqpNotifier)(nil)

// NewAMQPNotifier creates a notification sender that publishes to the
// notifications exchange on an existing AMQP channel.
func NewAMQPNotifier(channel *amqp.Channel, logger *zap.Logger) (Notifier, error) {
	if err := channel.ExchangeDeclare(notifyExchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("amqp: declare notifications exchange: %w", err)
	}
	return &amqpNotifier{channel: channel, logger: logger}, nil
}

func (n *amqpNotifier) Send(ctx context.Context, recipient, content string) error {
	body, err := json.Marshal(message{
		Type:      "job_status",
		Recipient: recipient,
		Content:   content,
	})
	if err != nil {
		return fmt.Errorf("amqp: marshal notification: %w", err)
	}

	err = n.channel.PublishWithContext(ctx,
		notifyExchange,
		notifyRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp: publish notification: %w", err)
	}

	n.logger.Debug("Notification published", zap.String("recipient", recipient))
	return nil
}
