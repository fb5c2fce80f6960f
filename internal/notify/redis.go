package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/infra"
	"go.uber.org/zap"
)

// RedisSink публикует события в Pub/Sub: в общий канал и в канал конкретного агента.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) WriteBatch(ctx context.Context, events []domain.StateChangeEvent) error {
	pipe := s.rdb.Pipeline()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal state event: %w", err)
		}
		pipe.Publish(ctx, infra.RedisChanStateChange, payload)
		pipe.Publish(ctx, infra.AgentStateChannel(ev.AgentID), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish state events: %w", err)
	}
	return nil
}

// Listen - «живучая» подписка на канал событий смены состояния.
// Переподключается при обрыве, битые сообщения пропускает. Выходит по отмене ctx.
func Listen(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onMessage func(domain.StateChangeEvent),
) {
	for {
		pubsub := rdb.Subscribe(ctx, channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}
		logger.Info("subscribed", zap.String("chan", channel))

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				ev, err := DecodeEvent([]byte(msg.Payload))
				if err != nil {
					logger.Error("invalid state event", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				onMessage(ev)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

// DecodeEvent разбирает и проверяет payload события
func DecodeEvent(payload []byte) (domain.StateChangeEvent, error) {
	var ev domain.StateChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("decode state event: %w", err)
	}
	if ev.Type != domain.EventTypeStateChange {
		return ev, fmt.Errorf("unexpected event type %q", ev.Type)
	}
	if ev.AgentID == "" || !ev.State.Valid() {
		return ev, fmt.Errorf("incomplete state event for agent %q", ev.AgentID)
	}
	return ev, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
