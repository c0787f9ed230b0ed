package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"shopcore-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message is one user-facing notification. Keyed by user so one user's
// notifications stay ordered within a partition.
type Message struct {
	UserID  int64  `json:"user_id"`
	Kind    string `json:"kind"` // order | promotion | system
	Event   string `json:"event"`
	RefID   string `json:"ref_id,omitempty"`
	Body    string `json:"body,omitempty"`
	SentAt  int64  `json:"sent_at"`
}

// Producer publishes notifications to Kafka. Delivery is best effort:
// publish failures are logged and swallowed so a broker outage never fails
// the business operation that triggered the notification.
type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *Producer) Close() error { return p.w.Close() }

// OrderEvent satisfies the order service's notifier.
func (p *Producer) OrderEvent(ctx context.Context, userID int64, orderSN, event string) {
	p.publish(ctx, Message{UserID: userID, Kind: "order", Event: event, RefID: orderSN})
}

func (p *Producer) Promotion(ctx context.Context, userID int64, body string) {
	p.publish(ctx, Message{UserID: userID, Kind: "promotion", Event: "promotion", Body: body})
}

func (p *Producer) System(ctx context.Context, userID int64, body string) {
	p.publish(ctx, Message{UserID: userID, Kind: "system", Event: "system", Body: body})
}

func (p *Producer) publish(ctx context.Context, msg Message) {
	log := logger.FromCtx(ctx)

	msg.SentAt = time.Now().Unix()
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error("notify: marshal failed", zap.Error(err))
		return
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.UserID, 10)),
		Value: b,
	})
	if err != nil {
		log.Warn("notify: publish failed",
			zap.String("event", msg.Event),
			zap.Int64("user_id", msg.UserID),
			zap.Error(err),
		)
	}
}
