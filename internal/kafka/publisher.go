package kafka

import (
	"context"
	"encoding/json"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"ndx-snapshot-backend/internal/config"
	"ndx-snapshot-backend/internal/models"
)

// RunEvent is the message published for every finished run.
type RunEvent struct {
	Type           string            `json:"type"`
	Status         models.SyncStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	FinishedAt     time.Time         `json:"finishedAt"`
	DurationMs     int64             `json:"durationMs"`
	RefreshedCount int               `json:"refreshedCount"`
	SkippedCount   int               `json:"skippedCount"`
	SkippedSymbols []string          `json:"skippedSymbols"`
	Error          string            `json:"error,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// RunPublisher fans run records out to Kafka.
type RunPublisher struct {
	w messageWriter
}

func NewRunPublisher(cfg config.KafkaConfig) *RunPublisher {
	return &RunPublisher{w: &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(cfg.BrokerURL),
		Topic:                  cfg.Topic,
		Balancer:               &kafkaGo.Hash{},
		RequiredAcks:           kafkaGo.RequireOne,
		AllowAutoTopicCreation: false,
		WriteTimeout:           5 * time.Second,
	}}
}

func (p *RunPublisher) Publish(ctx context.Context, rec models.SyncRunRecord) error {
	msg, err := EncodeRunEvent(rec)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *RunPublisher) Close() error {
	return p.w.Close()
}

// EncodeRunEvent keys the message by run type so events of one type stay
// ordered within a partition.
func EncodeRunEvent(rec models.SyncRunRecord) (kafkaGo.Message, error) {
	skipped := rec.SkippedSymbols
	if skipped == nil {
		skipped = []string{}
	}
	value, err := json.Marshal(RunEvent{
		Type:           rec.Type,
		Status:         rec.Status,
		CreatedAt:      rec.CreatedAt,
		FinishedAt:     rec.FinishedAt,
		DurationMs:     rec.DurationMs,
		RefreshedCount: len(rec.RefreshedSymbols),
		SkippedCount:   len(rec.SkippedSymbols),
		SkippedSymbols: skipped,
		Error:          rec.Error,
	})
	if err != nil {
		return kafkaGo.Message{}, err
	}
	return kafkaGo.Message{
		Key:   []byte(rec.Type),
		Value: value,
		Time:  rec.FinishedAt,
	}, nil
}
