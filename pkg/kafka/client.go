package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"booking-service/pkg/logger"
)

// Well-known topic names.
const (
	TopicBookingCreated    = "booking.created"
	TopicDriverAssigned    = "driver.assigned"
	TopicReservationStatus = "reservation.status_changed"
)

// Topics lists every topic the service publishes to.
var Topics = []string{TopicBookingCreated, TopicDriverAssigned, TopicReservationStatus}

// Client wraps Kafka operations. One writer is shared across topics.
type Client struct {
	brokers []string
	writer  *kafkago.Writer
	log     logger.ILogger
}

// NewClient returns a Client for the given brokers.
func NewClient(brokers []string, log logger.ILogger) *Client {
	return &Client{
		brokers: brokers,
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		log: log,
	}
}

// EnsureTopics creates topics if they don't already exist (with retry).
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	if len(c.brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}
	for attempt := 1; attempt <= 20; attempt++ {
		conn, err := kafkago.DialContext(ctx, "tcp", c.brokers[0])
		if err != nil {
			c.log.Warning("kafka not ready, retrying", logger.Int("attempt", attempt), logger.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		configs := make([]kafkago.TopicConfig, len(topics))
		for i, t := range topics {
			configs[i] = kafkago.TopicConfig{
				Topic:             t,
				NumPartitions:     3,
				ReplicationFactor: 1,
			}
		}

		err = conn.CreateTopics(configs...)
		conn.Close()
		if err != nil {
			c.log.Info("topic creation returned (may already exist)", logger.Error(err))
		}
		c.log.Info("kafka topics ensured", logger.Any("topics", topics))
		return nil
	}
	return fmt.Errorf("kafka: could not connect after 20 attempts")
}

// Publish sends a JSON-serialised message to a topic. Messages with the same
// key land on the same partition.
func (c *Client) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

// Subscribe starts a background goroutine that reads from a topic until ctx ends.
func (c *Client) Subscribe(ctx context.Context, topic, groupID string, handler func(context.Context, []byte) error) {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  c.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	log := c.log.With(logger.String("topic", topic), logger.String("group", groupID))

	go func() {
		defer r.Close()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warning("kafka read error", logger.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if err := handler(ctx, msg.Value); err != nil {
				log.Error("kafka handler error", logger.String("key", string(msg.Key)), logger.Error(err))
			}
		}
	}()
}

// Close flushes pending writes.
func (c *Client) Close() error { return c.writer.Close() }
