// Package stream carries shopper activity events over Redis Streams.
package stream

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StreamActivity = "stylist:activity"
	DefaultGroup   = "stylist-metrics"
)

type RedisStream struct {
	client *redis.Client
	group  string
	log    zerolog.Logger
}

func NewRedisStream(client *redis.Client, group string, log zerolog.Logger) *RedisStream {
	if group == "" {
		group = DefaultGroup
	}
	return &RedisStream{
		client: client,
		group:  group,
		log:    log.With().Str("component", "redis_stream").Logger(),
	}
}

func (s *RedisStream) CreateGroup(ctx context.Context, stream string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (s *RedisStream) Publish(ctx context.Context, stream string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{"data": payload},
	}).Result()
}

// Consume blocks until ctx is done. Messages are acknowledged only when
// handler succeeds.
func (s *RedisStream) Consume(ctx context.Context, stream, consumer string, handler func(id string, data []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    50,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				s.log.Error().Err(err).Str("stream", stream).Msg("stream read error")
				time.Sleep(time.Second)
			}
			continue
		}

		for _, st := range streams {
			for _, msg := range st.Messages {
				data, ok := msg.Values["data"].(string)
				if !ok {
					s.client.XAck(ctx, st.Stream, s.group, msg.ID)
					continue
				}

				if err := handler(msg.ID, []byte(data)); err != nil {
					s.log.Warn().Err(err).Str("id", msg.ID).Msg("activity handler failed")
					continue
				}
				s.client.XAck(ctx, st.Stream, s.group, msg.ID)
			}
		}
	}
}
