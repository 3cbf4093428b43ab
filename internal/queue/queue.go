// Package queue carries the RabbitMQ plumbing for background analysis
// runs: queue topology, job payloads, and the message handlers the
// worker dispatches to.
package queue

import (
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/civicsignal/legisnet/internal/config"
)

// Work queue names. Each main queue gets a matching <name>_retry queue
// that dead-letters back to it after a delay, and a <name>_dlq for
// messages that exhausted their retries.
const (
	AnalysisQueue = "analysis_queue"
	ForecastQueue = "forecast_queue"
)

// WorkQueues lists every main queue the worker consumes.
var WorkQueues = []string{AnalysisQueue, ForecastQueue}

// retryDelayMs is how long a failed message parks in the retry queue
// before dead-lettering back to the main queue.
const retryDelayMs = int32(10000)

// Connect dials RabbitMQ with the broker settings in cfg.
func Connect(cfg *config.Config) (*amqp091.Connection, error) {
	return amqp091.Dial(cfg.AmqpURL())
}

// SetupQueues declares the durable main, retry, and dead-letter queues
// for every listed queue name. Declaration is idempotent; every process
// runs it on startup.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return err
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return err
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             retryDelayMs,
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// PublishJob sends a persistent message to the named queue.
func PublishJob(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}
