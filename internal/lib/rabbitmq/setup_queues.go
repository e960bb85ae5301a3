package rabbitmq

// QueueConfig binds one queue to the notifications exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// EmailQueue is the queue the notification-sender worker consumes; every
// notification kind routes into it.
const EmailQueue = "notification.email"

// GetNotificationQueues returns the queue topology of the notifications
// exchange.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: "email"},
	}
}
