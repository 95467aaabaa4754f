package data

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/chainpress/newsverify/src/verification"
)

// EventProducer publishes one message per completed verification attempt.
// Producer failures are logged and swallowed: the event stream is a
// downstream convenience, never part of the verification outcome.
type EventProducer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

type verificationEvent struct {
	ArticleID string  `json:"article_id"`
	Status    string  `json:"status"`
	Score     float64 `json:"credibility_score"`
	TxHash    string  `json:"tx_hash"`
	At        string  `json:"at"`
}

func NewEventProducer(brokers, topic string, log *zap.Logger) *EventProducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (p *EventProducer) Publish(ctx context.Context, res *verification.Result) {
	value, err := json.Marshal(verificationEvent{
		ArticleID: res.ArticleID.String(),
		Status:    string(res.Status),
		Score:     res.CredibilityScore,
		TxHash:    res.Proof.TxHash,
		At:        res.VerifiedAt.Format(time.RFC3339),
	})
	if err != nil {
		p.log.Error("encode verification event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(res.ArticleID.String()),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("publish verification event",
			zap.String("article_id", res.ArticleID.String()),
			zap.Error(err))
	}
}

func (p *EventProducer) Close() error {
	return p.writer.Close()
}
