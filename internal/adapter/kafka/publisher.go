// Package kafka publishes marker descriptors to a Kafka topic so downstream
// map services can consume them without reading our output files.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/tarandus/obsmap/internal/domain"
)

// Publisher produces marker messages to a Kafka topic.
// It implements pipeline.Renderer.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the marker topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Name identifies this render target in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Render serializes and publishes the whole descriptor batch in a single
// WriteMessages call for efficiency.
func (p *Publisher) Render(ctx context.Context, descriptors []domain.MarkerDescriptor) error {
	if len(descriptors) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(descriptors))
	for i := range descriptors {
		msg, err := serializeToMessage(descriptors[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish markers: %w", err)
	}
	p.logger.Info("published markers", "topic", p.writer.Topic, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type markerMessage struct {
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	Color     string  `json:"color"`
	FillColor string  `json:"fill_color"`
	Radius    int     `json:"radius"`
	Label     string  `json:"label"`
	PopupHTML string  `json:"popup_html"`
	BuiltAt   string  `json:"built_at"`
}

// serializeToMessage marshals a MarkerDescriptor into a Kafka message keyed
// by its label.
func serializeToMessage(d domain.MarkerDescriptor) (kafkago.Message, error) {
	builtAt := d.BuiltAt.UTC().Format(time.RFC3339)
	data, err := json.Marshal(markerMessage{
		Lon:       d.Position.Lon,
		Lat:       d.Position.Lat,
		Color:     d.Style.Color,
		FillColor: d.Style.FillColor,
		Radius:    d.Style.Radius,
		Label:     d.Label,
		PopupHTML: d.PopupHTML,
		BuiltAt:   builtAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(d.Label),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "built_at", Value: []byte(builtAt)},
		},
	}, nil
}
