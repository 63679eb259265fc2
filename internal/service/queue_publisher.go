// Package queue_publisher publishes domain events to RabbitMQ.  Errors are
// logged and returned so callers can ignore them without interrupting the
// request that produced the event.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/lightbnb/internal/queue"
)

// Publisher dials the broker per publish.  Event volume is one message per
// reservation, so no connection is held open between requests.
type Publisher struct {
    URL string
}

// New returns a Publisher for the broker at url.
func New(url string) *Publisher { return &Publisher{URL: url} }

// PublishReservationCreated sends ev to the durable reservation.created
// queue as a persistent JSON message.
func (p *Publisher) PublishReservationCreated(ctx context.Context, ev q.ReservationCreatedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }
    return p.publish(ctx, q.ReservationCreatedQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    if err := ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    ); err != nil {
        log.Printf("rabbitmq: publish to %s failed: %v", queue, err)
        return err
    }
    return nil
}
