package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queues names the three queues backing one job queue.
type Queues struct {
	Main  string
	Retry string
	DLQ   string
}

func QueuesFor(queue string) Queues {
	return Queues{Main: queue, Retry: queue + ".retry", DLQ: queue + ".dlq"}
}

// DeclareTopology declares the main queue plus its retry and dead-letter
// queues. Publisher and worker both call it so the arguments always match.
func DeclareTopology(ch *amqp.Channel, queue string) (Queues, error) {
	q := QueuesFor(queue)

	if _, err := ch.QueueDeclare(q.DLQ, true, false, false, false, nil); err != nil {
		return q, fmt.Errorf("declare %s: %w", q.DLQ, err)
	}

	// retry: message TTL -> dead-letter back to main queue
	if _, err := ch.QueueDeclare(q.Retry, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.Main,
	}); err != nil {
		return q, fmt.Errorf("declare %s: %w", q.Retry, err)
	}

	// main: reject/nack(requeue=false) goes to the DLQ
	if _, err := ch.QueueDeclare(q.Main, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.DLQ,
	}); err != nil {
		return q, fmt.Errorf("declare %s: %w", q.Main, err)
	}
	return q, nil
}
