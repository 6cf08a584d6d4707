package devauth

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/jwt"
	"github.com/MrEthical07/portalauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DemoAccounts are seeded into every Local service.
var DemoAccounts = []SeedUser{
	{Name: "Portal Admin", Email: "admin@portal.local", Password: "admin123", Role: portalauth.RoleAdmin},
	{Name: "Demo Student", Email: "student@portal.local", Password: "student123", Role: portalauth.RoleStudent},
}

// Local is a self-contained Service over an in-process miniredis, signing
// HS256 tokens with a key generated at start. Everything is lost on Close.
type Local struct {
	*Service

	mr     *miniredis.Miniredis
	client *redis.Client
}

// NewLocal starts a Local service seeded with DemoAccounts.
func NewLocal(ctx context.Context, logger *zap.Logger) (*Local, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	l := &Local{mr: mr, client: client}
	if err := l.init(ctx, logger); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func (l *Local) init(ctx context.Context, logger *zap.Logger) error {
	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return err
	}
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           8 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    key,
		Issuer:        "portal-devauth",
	})
	if err != nil {
		return err
	}

	l.Service = New(l.client, hasher, tokens, DefaultConfig(), logger)
	return l.Seed(ctx, DemoAccounts...)
}

// Client returns the Redis client the service writes through. Callers may
// share it, for example as session storage.
func (l *Local) Client() *redis.Client {
	return l.client
}

// Close stops miniredis.
func (l *Local) Close() {
	_ = l.client.Close()
	l.mr.Close()
}
