package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BusMessage is one relayed room event crossing instance boundaries.
type BusMessage struct {
	Origin  string `json:"origin"`
	Room    string `json:"room"`
	Payload []byte `json:"payload"`
}

// Bus fans room events out across server instances through Redis
// pub/sub. Single-instance deployments run without one.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewBus wraps an already-connected Redis client.
func NewBus(rdb *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{rdb: rdb, logger: logger}
}

// Publish sends a message on the room's channel.
func (b *Bus) Publish(ctx context.Context, msg BusMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel(msg.Room), raw).Err()
}

// Subscribe invokes fn for every room message until ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, fn func(BusMessage)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var bm BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				b.logger.Warn("malformed bus message", zap.Error(err))
				continue
			}
			if bm.Room != "" {
				fn(bm)
			}
		}
	}
}

func channel(room string) string { return "codelive:room:" + room }
