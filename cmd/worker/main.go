package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/queue"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/family"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/leaselock"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger/console"
	pgdb "github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store/pgx"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init pgx client
	pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	rosterStorage := pgdb.NewRosterDBStorage(pgConn)
	processor := queue.NewProcessor(queue.NewProcessorParams{
		Storage: rosterStorage,
		Family: family.NewClient(family.NewClientParams{
			Writer:     rosterStorage,
			MaxRetries: int(util.GetEnvNumeric("CLEANUP_RETRIES", 3)),
		}),
		Locks: leaselock.New(pgConn),
		Lease: leaselock.Options{
			TTL: util.GetEnvDuration("WORKER_LEASE_TTL", 10*time.Minute),
		},
	})

	// Init rabbitmq
	conn, err := queue.Init()
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	// Init rabbitmq queues if not exist
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	logger.Info("Listening for messages")

	// A single consumer channel with prefetch=1 delivers one message at a
	// time across all queues.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queue.Queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				processingErr := processor.Process(ctx, qm.queueName, qm.msg.Body)

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					queue.HandleProcessingError(consumerCh, qm.msg, qm.queueName, processingErr)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				logger.Info("Processing time", "queue", qm.queueName, "duration", time.Since(startTime).Round(time.Millisecond))
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
