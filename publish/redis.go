// Package publish announces executed trading actions over Redis pub/sub so
// downstream consumers (dashboards, notifiers) can react without polling the
// database.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crossbot/bot"
)

// RedisPublisher implements bot.Publisher on a Redis channel per symbol:
// "<prefix>.<symbol>", e.g. "crossbot.actions.BTCUSDT". Payloads are the
// JSON encoding of bot.ActionResult.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// NewRedis builds a publisher. The connection is lazy; call Ping to verify
// reachability before going live.
func NewRedis(addr, password string, db int, prefix string, log *zap.Logger) *RedisPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
			PoolSize: 10,
		}),
		prefix: prefix,
		log:    log,
	}
}

// Ping verifies the server is reachable.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Publish(ctx context.Context, res bot.ActionResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}

	channel := p.Channel(res.Symbol)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	p.log.Debug("action published",
		zap.String("channel", channel),
		zap.String("action", string(res.Action)),
	)
	return nil
}

// Channel returns the pub/sub channel used for a symbol.
func (p *RedisPublisher) Channel(symbol string) string {
	return p.prefix + "." + symbol
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
