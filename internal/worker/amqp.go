package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

const (
	QueueName       = "roadmap_requests"
	UpdatesExchange = "roadmap_updates"
)

// AMQPPublisher publishes status updates to the topic exchange with routing key
// request.<id>.
type AMQPPublisher struct {
	Conn *amqp.Connection
}

// DeclareExchange makes sure the updates exchange exists.
func (p *AMQPPublisher) DeclareExchange() error {
	ch, err := p.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.ExchangeDeclare(
		UpdatesExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-delete
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
}

func (p *AMQPPublisher) Publish(_ context.Context, update StatusUpdate) error {
	ch, err := p.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return ch.Publish(
		UpdatesExchange,
		fmt.Sprintf("request.%s", update.RequestID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// StartConsumerPool runs numWorkers consumers on the request queue and blocks
// until all of them stop. The first consumer error stops the whole pool.
func (w *Worker) StartConsumerPool(ctx context.Context, rabbitURL string, numWorkers int) error {
	return runPool(ctx, numWorkers, func(ctx context.Context, id int) error {
		return w.consume(ctx, id, rabbitURL)
	})
}

func runPool(ctx context.Context, numWorkers int, consume func(ctx context.Context, id int) error) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for i := range numWorkers {
		wg.Add(1)
		slog.Info("worker started", "worker_id", i+1)
		go func() {
			defer wg.Done()
			if err := consume(ctx, i+1); err != nil {
				err = fmt.Errorf("worker %d: %w", i+1, err)
				slog.Error("consumer stopped, shutting down pool", "worker_id", i+1, "error", err)
				cancel(err)
			}
		}()
	}
	wg.Wait()
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *Worker) consume(ctx context.Context, id int, rabbitURL string) error {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		QueueName, // queue name
		true,      // durable (survives broker restarts)
		false,     // auto-delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		QueueName, // queue name
		"",        // consumer tag
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq messages: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			slog.Info("message received", "worker_id", id)
			w.settle(ctx, id, msg)
		}
	}
}

// settle processes one delivery. Failed requests are recorded as failed and
// acked; a delivery interrupted by shutdown is requeued.
func (w *Worker) settle(ctx context.Context, id int, msg amqp.Delivery) {
	if err := w.Process(ctx, msg.Body); err != nil {
		slog.Error("message failed", "worker_id", id, "error", err)
	}
	if ctx.Err() != nil {
		slog.Warn("shutdown during processing, requeueing message", "worker_id", id)
		if err := msg.Nack(false, true); err != nil {
			slog.Error("failed to requeue message", "worker_id", id, "error", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "worker_id", id, "error", err)
	}
}
