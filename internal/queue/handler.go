package queue

import (
	"errors"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// MaxRetries is the number of retries before a message is dead-lettered.
const MaxRetries = 10

const retriesHeader = "x-retries"

func retryCount(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// HandleProcessingError routes a failed delivery to the retry queue, or to
// the dead-letter queue once it is out of retries or can never succeed.
func HandleProcessingError(ch Publisher, msg amqp091.Delivery, queueName string, processingErr error) {
	retries := retryCount(msg.Headers)

	if retries >= MaxRetries || errors.Is(processingErr, ErrInvalidMessage) {
		dlqName := queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp091.Publishing{
				ContentType: msg.ContentType,
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
		return
	}

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retriesHeader] = int32(retries + 1)

	retryName := queueName + "_retry"
	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp091.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
