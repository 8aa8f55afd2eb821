// Package worker consumes image jobs from RabbitMQ and runs them.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/goldgpt/internal/store/rabbitmq"
)

var ErrDeliveriesClosed = errors.New("delivery channel closed")

type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

type Pool struct {
	runner      JobRunner
	concurrency int
	log         *slog.Logger
}

func NewPool(runner JobRunner, concurrency int, log *slog.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Pool{runner: runner, concurrency: concurrency, log: log}
}

// Serve dispatches deliveries to the pool until ctx is done or the delivery
// channel closes. In-flight jobs finish before it returns.
func (p *Pool) Serve(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	jobs := make(chan amqp.Delivery, p.concurrency*2)

	var wg sync.WaitGroup
	wg.Add(p.concurrency)
	for i := 0; i < p.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				p.handle(ctx, workerID, d)
			}
		}(i)
	}

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			p.log.Info("worker shutting down")
			break loop
		case d, ok := <-deliveries:
			if !ok {
				err = ErrDeliveriesClosed
				break loop
			}
			jobs <- d
		}
	}
	close(jobs)
	wg.Wait()
	return err
}

func (p *Pool) handle(ctx context.Context, workerID int, d amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("job panicked", "worker", workerID, "panic", r, "stack", string(debug.Stack()))
			_ = d.Nack(false, false)
		}
	}()

	jobID, err := rabbitmq.DecodeJob(d.Body)
	if err != nil {
		p.log.Warn("bad message", "worker", workerID, "error", err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := p.runner.Run(ctx, jobID); err != nil {
		p.log.Error("job failed", "worker", workerID, "job_id", jobID, "cost", time.Since(start), "error", err)
		_ = d.Nack(false, false)
		return
	}
	if err := d.Ack(false); err != nil {
		p.log.Error("ack failed", "worker", workerID, "job_id", jobID, "error", err)
	}
}

// Run connects to RabbitMQ, declares the job topology and serves until ctx
// is cancelled.
func Run(ctx context.Context, url, queue string, pool *Pool) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("rabbit dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbit channel: %w", err)
	}
	defer ch.Close()

	if _, err := rabbitmq.DeclareTopology(ch, queue); err != nil {
		return err
	}
	// strict concurrency control
	if err := ch.Qos(pool.concurrency, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	pool.log.Info("worker started", "queue", queue, "concurrency", pool.concurrency)
	err = pool.Serve(ctx, msgs)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
