package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"

	"github.com/civicsignal/legisnet/internal/config"
	"github.com/civicsignal/legisnet/internal/export"
	"github.com/civicsignal/legisnet/internal/migrate"
	"github.com/civicsignal/legisnet/internal/queue"
	"github.com/civicsignal/legisnet/internal/util"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/logger/console"
	"github.com/civicsignal/legisnet/pkg/runlock"
	storepgx "github.com/civicsignal/legisnet/pkg/store/pgx"
)

const (
	// Postgres and RabbitMQ may still be starting when the worker
	// comes up; retry connects instead of crash-looping.
	migrateAttempts       = 10
	brokerConnectAttempts = 30

	// maxDeliveryAttempts is how often a failing message cycles
	// through the retry queue before landing in the DLQ.
	maxDeliveryAttempts = 10

	// localExportDir receives documents when S3 is not configured.
	localExportDir = "exports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.RequireQueue(); err != nil {
		logger.Fatal("Missing broker configuration", "err", err)
	}

	pgConn, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	err = util.RetryErr(migrateAttempts, func() error {
		if err := migrate.Up(cfg.DatabaseURL); err != nil {
			time.Sleep(2 * time.Second)
			return err
		}
		return nil
	})
	if err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	// S3 is optional: without it, documents land in a local directory.
	var sink export.Sink
	if s3Err := cfg.RequireS3(); s3Err == nil {
		s3Client, err := export.NewS3Client(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to build S3 client", "err", err)
		}
		sink = export.NewS3Sink(s3Client, cfg.AWSBucket, "")
		logger.Info("Exporting documents to S3", "bucket", cfg.AWSBucket)
	} else {
		dirSink, err := export.NewDirSink(localExportDir)
		if err != nil {
			logger.Fatal("Failed to prepare local export directory", "err", err)
		}
		sink = dirSink
		logger.Warn("S3 not configured, exporting to local directory", "dir", localExportDir)
	}
	defer sink.Close()

	conn, err := util.Retry(brokerConnectAttempts, func() (*amqp.Connection, error) {
		c, err := queue.Connect(cfg)
		if err != nil {
			time.Sleep(time.Second)
		}
		return c, err
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.WorkQueues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	st := storepgx.New(pgConn)
	locks := runlock.New(pgConn)

	logger.Info("Listening for messages")

	// One consumer channel with prefetch=1 so only a single message is
	// in flight across all queues; analysis runs are heavy.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	eg, ectx := errgroup.WithContext(ctx)

	for _, queueName := range queue.WorkQueues {
		eg.Go(func() error {
			consumerTag := fmt.Sprintf("%s_consumer", queueName)
			msgs, err := consumerCh.Consume(
				queueName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				return fmt.Errorf("start consuming %s: %w", queueName, err)
			}

			for {
				select {
				case <-ectx.Done():
					logger.Info("Stopping consumer", "queue", queueName)
					return nil
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", queueName)
						return nil
					}
					select {
					case messageChan <- queuedMessage{msg: msg, queueName: queueName}:
					case <-ectx.Done():
						logger.Info("Stopping consumer", "queue", queueName)
						return nil
					}
				}
			}
		})
	}

	eg.Go(func() error {
		for {
			select {
			case <-ectx.Done():
				logger.Info("Stopping message processor")
				return nil
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.AnalysisQueue:
					processingErr = queue.ProcessAnalysisMessage(ectx, st, locks, sink, cfg, string(qm.msg.Body))
				case queue.ForecastQueue:
					processingErr = queue.ProcessForecastMessage(ectx, st, locks, sink, string(qm.msg.Body))
				}

				// A failed message goes to retry or dead-letter,
				// otherwise ack it.
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully",
						"queue", qm.queueName,
						"duration", time.Since(startTime).Round(time.Millisecond).String(),
					)
				}
			}
		}
	})

	if err := eg.Wait(); err != nil {
		logger.Fatal("Worker stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// Exhausted messages land in the dead-letter queue for inspection.
	if retries >= maxDeliveryAttempts {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
