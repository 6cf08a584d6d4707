package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Storage] backed by Redis, shared by views running in different
// processes.
//
// Keys live under prefix. Every write is a MULTI of the data command plus a
// PUBLISH of a JSON [Change] on "<prefix>:changes", so watchers see a change
// only after it is applied.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedis creates a [Redis] storage. An empty prefix defaults to "portal".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "portal"
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Redis) key(key string) string {
	return s.prefix + ":" + key
}

func (s *Redis) channel() string {
	return s.prefix + ":changes"
}

// Available reports whether a client is configured. Connectivity problems
// surface as [ErrBackendUnavailable] on individual calls instead.
func (s *Redis) Available() bool {
	return s != nil && s.redis != nil
}

// Get returns the value stored under key.
//
//	Performance: 1 Redis GET.
func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return value, true, nil
}

// Set stores value under key and publishes the change.
//
//	Performance: 1 round-trip (MULTI SET + PUBLISH).
func (s *Redis) Set(ctx context.Context, key, value string) error {
	payload, err := json.Marshal(Change{Key: key, Origin: OriginFromContext(ctx)})
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, 0)
		pipe.Publish(ctx, s.channel(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Remove deletes key and publishes the change.
//
//	Performance: 1 round-trip (MULTI DEL + PUBLISH).
func (s *Redis) Remove(ctx context.Context, key string) error {
	payload, err := json.Marshal(Change{Key: key, Origin: OriginFromContext(ctx), Removed: true})
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(key))
		pipe.Publish(ctx, s.channel(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Watch subscribes to the change channel. The subscription is confirmed
// before Watch returns, so writes made afterwards are never missed.
// Undecodable messages are delivered as a keyless [Change].
func (s *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	sub := s.redis.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	out := make(chan Change, watchBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					change = Change{}
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
