package notification

import (
	"github.com/streadway/amqp"

	"github.com/decorent/decorent/internal/lib/rabbitmq"
	"github.com/decorent/decorent/internal/models"
)

// AMQPPublisher routes notification events to the email queue.
type AMQPPublisher struct {
	ch *amqp.Channel
}

func NewAMQPPublisher(ch *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{ch: ch}
}

// Publish sends the event to the notifications exchange with the email
// routing key.
func (p *AMQPPublisher) Publish(event models.NotificationEvent) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeName, "email", event)
}
