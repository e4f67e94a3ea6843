//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/tarandus/obsmap/internal/adapter/kafka"
	"github.com/tarandus/obsmap/internal/domain"
)

const testMarkerTopic = "test-observation-markers"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("obsmap-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker addresses")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic")
}

// TestPublisherRoundTrip verifies the publisher against a real broker: the
// descriptor batch lands on the topic with the expected keys, payloads, and
// headers.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testMarkerTopic)

	builtAt := time.Date(2025, time.July, 14, 9, 30, 0, 0, time.UTC)
	descriptors := []domain.MarkerDescriptor{
		{
			Position:  domain.GeoPoint{Lon: 13.8473, Lat: 78.3121},
			Style:     domain.Style{Color: "#2c7fb8", FillColor: "#2c7fb8", Radius: 6},
			PopupHTML: "<b>Observation 1</b>",
			Label:     "Observation 1",
			BuiltAt:   builtAt,
		},
		{
			Position:  domain.GeoPoint{Lon: 14.2901, Lat: 78.3144},
			Style:     domain.Style{Color: "#636363", FillColor: "#636363", Radius: 6},
			PopupHTML: "<b>Observation 2</b>",
			Label:     "Observation 2",
			BuiltAt:   builtAt,
		},
	}

	publisher := kafkaadapter.NewPublisher([]string{broker}, testMarkerTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.Render(ctx, descriptors))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testMarkerTopic,
		GroupID: fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i, want := range descriptors {
		readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		cancelRead()
		require.NoError(t, err, "read message %d", i)

		assert.Equal(t, want.Label, string(msg.Key))

		var payload map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &payload))
		assert.InDelta(t, want.Position.Lon, payload["lon"].(float64), 1e-9)
		assert.InDelta(t, want.Position.Lat, payload["lat"].(float64), 1e-9)
		assert.Equal(t, want.Style.Color, payload["color"])
		assert.Equal(t, want.PopupHTML, payload["popup_html"])
		assert.Equal(t, "2025-07-14T09:30:00Z", payload["built_at"])

		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "built_at", msg.Headers[0].Key)
		assert.Equal(t, []byte("2025-07-14T09:30:00Z"), msg.Headers[0].Value)
	}
}

// TestPublisherEmptyBatch verifies that an empty run is a no-op rather than
// an error against a live broker.
func TestPublisherEmptyBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testMarkerTopic)

	publisher := kafkaadapter.NewPublisher([]string{broker}, testMarkerTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.Render(ctx, nil))
}
