package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Data is the server-side session record. The client only ever holds the
// opaque token; everything here lives in Redis.
//
// State and ReturnTo are transient fields used during the identity-provider
// handshake and are cleared when the login completes.
type Data struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`

	State    string `json:"state,omitempty"`
	ReturnTo string `json:"returnTo,omitempty"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) TTL() time.Duration { return s.ttl }

func key(token string) string { return fmt.Sprintf("rft:sess:%s", token) }

// newToken returns 32 random bytes hex-encoded.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Get loads the session for token and refreshes its rolling expiry.
// A missing or expired session is (nil, nil), not an error.
func (s *Store) Get(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, nil
	}
	b, err := s.rdb.Get(ctx, key(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	// 滚动过期：每次访问续期
	_ = s.rdb.Expire(ctx, key(token), s.ttl).Err()
	return &d, nil
}

// Save persists d under token with a fresh TTL.
func (s *Store) Save(ctx context.Context, token string, d *Data) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(token), b, s.ttl).Err()
}

// New creates a session under a fresh token.
func (s *Store) New(ctx context.Context, d *Data) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.Save(ctx, token, d); err != nil {
		return "", err
	}
	return token, nil
}

// Regenerate moves the session behind oldToken to a fresh token and
// invalidates the old one. This runs before any principal data is written on
// login, so a pre-set (attacker-known) token never becomes authenticated.
// If oldToken resolves to nothing, the new session starts empty.
func (s *Store) Regenerate(ctx context.Context, oldToken string) (string, error) {
	old, err := s.Get(ctx, oldToken)
	if err != nil {
		return "", err
	}
	if old == nil {
		old = &Data{}
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.Save(ctx, token, old); err != nil {
		return "", err
	}
	if oldToken != "" {
		if err := s.rdb.Del(ctx, key(oldToken)).Err(); err != nil {
			return "", err
		}
	}
	return token, nil
}

// Destroy invalidates the server-side record. Failures are reported, not
// swallowed; deleting an absent session is fine.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.rdb.Del(ctx, key(token)).Err()
}
