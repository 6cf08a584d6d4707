package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning. MaxFailures <= 0 disables throttling.
type Config struct {
	Prefix       string
	MaxFailures  int
	Window       time.Duration
	ThrottleByIP bool
}

// DefaultConfig allows five failures per email per fifteen minutes.
func DefaultConfig() Config {
	return Config{
		Prefix:      "devauth",
		MaxFailures: 5,
		Window:      15 * time.Minute,
	}
}

// Limiter counts failed logins in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] over client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "devauth"
	}
	return &Limiter{
		redis:  client,
		config: cfg,
	}
}

func (l *Limiter) emailKey(email string) string {
	return l.config.Prefix + ":rl:email:" + strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) ipKey(ip string) string {
	return l.config.Prefix + ":rl:ip:" + ip
}

func (l *Limiter) keys(email, ip string) []string {
	keys := []string{l.emailKey(email)}
	if l.config.ThrottleByIP && ip != "" {
		keys = append(keys, l.ipKey(ip))
	}
	return keys
}

// Allow returns [ErrRateLimited] when email or ip already used up the window.
func (l *Limiter) Allow(ctx context.Context, email, ip string) error {
	if l.config.MaxFailures <= 0 {
		return nil
	}

	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxFailures) {
			return ErrRateLimited
		}
	}
	return nil
}

// Fail records one failed login.
func (l *Limiter) Fail(ctx context.Context, email, ip string) error {
	if l.config.MaxFailures <= 0 {
		return nil
	}

	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the counters after a successful login.
func (l *Limiter) Reset(ctx context.Context, email, ip string) error {
	if err := l.redis.Del(ctx, l.keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Failures returns the current failure count for email.
func (l *Limiter) Failures(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, l.emailKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}
