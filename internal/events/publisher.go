// Package events publishes terminal run events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vidsum/vidsum/internal/config"
	"github.com/vidsum/vidsum/internal/logger"
)

// RunEvent is the message emitted once per finished pipeline run.
type RunEvent struct {
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Title      string    `json:"title,omitempty"`
	ReportPath string    `json:"report_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	Partial    bool      `json:"partial,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher writes run events to a Kafka topic. When disabled it
// degrades to logging the events it would have published.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	logger  logger.Logger
}

// New creates a publisher. Kafka disabled or no brokers configured
// yields a log-only publisher.
func New(cfg *config.Config, log logger.Logger) *Publisher {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		log.Info(context.Background(), "Kafka disabled, run events are log-only")
		return &Publisher{topic: cfg.Kafka.Topic, logger: log}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info(context.Background(), "Kafka publisher initialized (brokers: %v, topic: %s)",
		cfg.Kafka.Brokers, cfg.Kafka.Topic)

	return &Publisher{
		writer:  writer,
		topic:   cfg.Kafka.Topic,
		enabled: true,
		logger:  log,
	}
}

// Publish emits one run event, keyed by the video URL.
func (p *Publisher) Publish(ctx context.Context, event RunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	p.logger.Debug(ctx, "Publishing run event: %s", payload)

	if !p.enabled || p.writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.URL),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("run." + event.Status)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "Failed to publish run event to %s: %v", p.topic, err)
		return fmt.Errorf("write run event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
