package devauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/internal/rate"
	"github.com/MrEthical07/portalauth/jwt"
	"github.com/MrEthical07/portalauth/password"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidRole     = errors.New("invalid portal access level")
	ErrInvalidEmail    = errors.New("invalid email")
)

// User is a stored account.
type User struct {
	ID           string `redis:"id"`
	Name         string `redis:"name"`
	Email        string `redis:"email"`
	Role         string `redis:"role"`
	PasswordHash string `redis:"hash"`
}

// Config tunes a Service.
type Config struct {
	Prefix string
	Rate   rate.Config
}

// DefaultConfig keeps keys under "devauth" with the default throttle.
func DefaultConfig() Config {
	return Config{
		Prefix: "devauth",
		Rate:   rate.DefaultConfig(),
	}
}

// Service owns the user records.
type Service struct {
	redis   redis.UniversalClient
	prefix  string
	hasher  *password.Hasher
	tokens  *jwt.Manager
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New returns a Service. A nil logger logs nothing.
func New(client redis.UniversalClient, hasher *password.Hasher, tokens *jwt.Manager, cfg Config, logger *zap.Logger) *Service {
	if cfg.Prefix == "" {
		cfg.Prefix = "devauth"
	}
	if cfg.Rate.Prefix == "" {
		cfg.Rate.Prefix = cfg.Prefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		redis:   client,
		prefix:  cfg.Prefix,
		hasher:  hasher,
		tokens:  tokens,
		limiter: rate.New(client, cfg.Rate),
		logger:  logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) userKey(email string) string {
	return s.prefix + ":user:" + normalizeEmail(email)
}

// Register creates a self-service account. Only STUDENT, TPC and DEPT_HEAD
// may be chosen; an empty level means STUDENT.
func (s *Service) Register(ctx context.Context, name, email, pass, level string) (*User, error) {
	if level == "" {
		level = portalauth.RoleStudent.String()
	}
	allowed := false
	for _, r := range portalauth.RegistrationRoles {
		if r.String() == level {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, level)
	}
	return s.create(ctx, name, email, pass, level)
}

func (s *Service) create(ctx context.Context, name, email, pass, role string) (*User, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}

	key := s.userKey(email)
	created, err := s.redis.HSetNX(ctx, key, "id", u.ID).Result()
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrUserExists
	}
	if err := s.redis.HSet(ctx, key, "name", u.Name, "email", u.Email, "role", u.Role, "hash", u.PasswordHash).Err(); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// Lookup returns the user registered under email.
func (s *Service) Lookup(ctx context.Context, email string) (*User, error) {
	var u User
	cmd := s.redis.HGetAll(ctx, s.userKey(email))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrUserNotFound
	}
	if err := cmd.Scan(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login checks the credentials and issues a session token. ip may be empty.
func (s *Service) Login(ctx context.Context, email, pass, ip string) (string, *User, error) {
	if err := s.limiter.Allow(ctx, email, ip); err != nil {
		return "", nil, err
	}

	u, err := s.Lookup(ctx, email)
	if err != nil {
		return "", nil, err
	}

	ok, err := s.hasher.Verify(pass, u.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		if err := s.limiter.Fail(ctx, email, ip); err != nil {
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		}
		return "", nil, ErrInvalidPassword
	}

	if err := s.limiter.Reset(ctx, email, ip); err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	}

	token, err := s.tokens.Issue(u.ID, u.Role, u.Name)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// SeedUser is an account created by Seed.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     portalauth.Role
}

// Seed creates accounts of any role, including ADMIN. Existing accounts are
// left alone.
func (s *Service) Seed(ctx context.Context, users ...SeedUser) error {
	for _, su := range users {
		if !su.Role.Known() {
			return fmt.Errorf("%w: %q", ErrInvalidRole, su.Role)
		}
		if _, err := s.create(ctx, su.Name, su.Email, su.Password, su.Role.String()); err != nil && !errors.Is(err, ErrUserExists) {
			return fmt.Errorf("seed %s: %w", su.Email, err)
		}
	}
	return nil
}
