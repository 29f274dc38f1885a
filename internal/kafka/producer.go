package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-flights/internal/models"

	"github.com/segmentio/kafka-go"
)

// Event is the envelope streamed for every order and catalog transition.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Producer streams order and flight events to their topics.
type Producer struct {
	orderWriter  *kafka.Writer
	flightWriter *kafka.Writer
}

func NewProducer(brokers []string, orderTopic, flightTopic string) *Producer {
	return &Producer{
		orderWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   orderTopic,
		}),
		flightWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   flightTopic,
		}),
	}
}

func (p *Producer) publish(writer *kafka.Writer, eventType, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return err
	}

	return writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(p.orderWriter, "order_created", order.OrderID, order)
}

func (p *Producer) PublishOrderPaid(order models.Order) error {
	return p.publish(p.orderWriter, "order_paid", order.OrderID, order)
}

func (p *Producer) PublishOrderCancelled(order models.Order) error {
	return p.publish(p.orderWriter, "order_cancelled", order.OrderID, order)
}

func (p *Producer) PublishOrderCompleted(order models.Order) error {
	return p.publish(p.orderWriter, "order_completed", order.OrderID, order)
}

func (p *Producer) PublishFlightCreated(flight models.Flight) error {
	return p.publish(p.flightWriter, "flight_created", flight.ID, flight)
}

func (p *Producer) PublishFlightUpdated(flight models.Flight) error {
	return p.publish(p.flightWriter, "flight_updated", flight.ID, flight)
}

func (p *Producer) PublishFlightDeleted(flight models.Flight) error {
	return p.publish(p.flightWriter, "flight_deleted", flight.ID, flight)
}

func (p *Producer) Close() error {
	if err := p.orderWriter.Close(); err != nil {
		return fmt.Errorf("failed to close order writer: %w", err)
	}
	return p.flightWriter.Close()
}
