package queue

import (
	"fmt"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

const (
	PropagateQueue = "propagate_queue"
	CleanupQueue   = "cleanup_queue"
)

// Queues lists every work queue consumed by the worker.
var Queues = []string{PropagateQueue, CleanupQueue}

// RetryDelay is how long a failed message waits in the retry queue before it
// is routed back to its work queue.
var RetryDelay = 10 * time.Second

// Publisher is satisfied by *amqp091.Channel.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Declarer is satisfied by *amqp091.Channel.
type Declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

// URL builds the broker URL from the RABBITMQ_* environment.
func URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

func Init() (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// SetupQueues declares each queue with a dead-letter sibling and a retry
// sibling whose expired messages flow back into the work queue.
func SetupQueues(ch Declarer, queueNames []string) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(RetryDelay.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare %s: %w", retryName, err)
		}
	}
	return nil
}

func PublishFIFO(ch Publisher, queueName string, data []byte) error {
	return ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
