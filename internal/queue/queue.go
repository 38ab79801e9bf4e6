package queue

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// QueueName is the durable queue carrying automation run requests.
const QueueName = "automation_runs"

// maxRetries caps redelivery of a failing run request before it is dropped.
const maxRetries = 3

// RunJob asks a runner to execute one automation. RunID correlates the
// HTTP request that enqueued the job with the runner's log lines.
type RunJob struct {
	AutomationID int    `json:"automation_id"`
	RunID        string `json:"run_id"`
}

// RunQueue publishes and consumes automation run requests over RabbitMQ.
// One connection and channel per process; reconnect by constructing a new
// RunQueue.
type RunQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	Logger logrus.FieldLogger
}

// Connect dials the broker and declares the run queue.
func Connect(url string) (*RunQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}

	if _, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "failed to declare queue")
	}

	return &RunQueue{conn: conn, ch: ch}, nil
}

func (q *RunQueue) Close() error {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Publish enqueues one run request.
func (q *RunQueue) Publish(job RunJob) error {
	return q.publish(job, 0)
}

func (q *RunQueue) publish(job RunJob, retryCount int32) error {
	body, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to encode job")
	}

	return q.ch.Publish(
		"",
		QueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{"x-retry-count": retryCount},
			Body:         body,
		},
	)
}

// Consume blocks, feeding each run request to handler until ctx is
// cancelled. A failing job is republished with an incremented retry count
// up to maxRetries, then dropped; a malformed body is dropped immediately.
func (q *RunQueue) Consume(ctx context.Context, handler func(ctx context.Context, job RunJob) error) error {
	deliveries, err := q.ch.Consume(
		QueueName,
		"",
		false, // manual ack, jobs survive a runner crash
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to register consumer")
	}

	logger := q.logger()
	logger.WithField("queue", QueueName).Info("waiting for run requests")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}

			var job RunJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				logger.WithError(err).Error("dropping malformed job")
				d.Ack(false)
				continue
			}

			if err := handler(ctx, job); err != nil {
				retryCount := retryCountOf(d)
				entry := logger.WithFields(logrus.Fields{
					"automation_id": job.AutomationID,
					"run_id":        job.RunID,
					"retry_count":   retryCount,
				})
				if retryCount < maxRetries {
					if pubErr := q.publish(job, retryCount+1); pubErr != nil {
						entry.WithError(pubErr).Error("failed to requeue job")
					} else {
						entry.WithError(err).Warn("run failed, requeued")
					}
				} else {
					entry.WithError(err).Error("run failed, retries exhausted, dropping")
				}
			}

			d.Ack(false)
		}
	}
}

func retryCountOf(d amqp.Delivery) int32 {
	if d.Headers == nil {
		return 0
	}
	switch v := d.Headers["x-retry-count"].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 0
	}
}

func (q *RunQueue) logger() logrus.FieldLogger {
	if q.Logger != nil {
		return q.Logger
	}
	return logrus.StandardLogger()
}
