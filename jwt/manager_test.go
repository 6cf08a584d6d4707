package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hsKey = []byte("0123456789abcdef0123456789abcdef")

func newHS(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: hsKey, Issuer: "portal"})
	require.NoError(t, err)
	return m
}

func TestIssueParseHS256(t *testing.T) {
	m := newHS(t)

	tok, err := m.Issue("u1", "TPC", "Asha")
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	assert.Equal(t, "TPC", claims.Role)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, "portal", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueUniqueIDs(t *testing.T) {
	m := newHS(t)
	a, err := m.Issue("u1", "", "")
	require.NoError(t, err)
	b, err := m.Issue("u1", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssueParseEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	require.NoError(t, err)

	tok, err := m.Issue("u2", "ADMIN", "")
	require.NoError(t, err)
	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseRejects(t *testing.T) {
	m := newHS(t)
	tok, err := m.Issue("u1", "STUDENT", "")
	require.NoError(t, err)

	other, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte(strings.Repeat("x", 32)), Issuer: "portal"})
	require.NoError(t, err)

	expired := newHS(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("u1", "", "")
	require.NoError(t, err)

	for name, candidate := range map[string]string{
		"garbage":       "not.a.token",
		"empty":         "",
		"wrong key":     tok,
		"tampered":      tok[:len(tok)-2] + "xx",
		"expired token": old,
	} {
		parser := m
		if name == "wrong key" {
			parser = other
		}
		_, err := parser.Parse(candidate)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestNewManagerValidation(t *testing.T) {
	bad := []Config{
		{TTL: 0, SigningMethod: MethodHS256, PrivateKey: hsKey},
		{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: hsKey, Leeway: time.Hour},
		{TTL: time.Hour, SigningMethod: MethodEd25519},
		{TTL: time.Hour, SigningMethod: "rs256", PrivateKey: hsKey},
	}
	for i, cfg := range bad {
		_, err := NewManager(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "case %d", i)
	}
}
