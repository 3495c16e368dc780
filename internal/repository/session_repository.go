package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/incident-admin/internal/models"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionRedisStore keeps sessions in Redis so every instance sees them.
type SessionRedisStore struct {
	client *redis.Client
}

func NewSessionRedisStore(client *redis.Client) *SessionRedisStore {
	return &SessionRedisStore{client: client}
}

func (s *SessionRedisStore) Save(ctx context.Context, session models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *SessionRedisStore) Load(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis load session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionRedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// SessionMemoryStore keeps sessions in a bounded in-process LRU. Sessions die with the process.
type SessionMemoryStore struct {
	lru *expirable.LRU[string, models.Session]
}

func NewSessionMemoryStore(size int, ttl time.Duration) *SessionMemoryStore {
	if size <= 0 {
		size = 10000
	}
	return &SessionMemoryStore{lru: expirable.NewLRU[string, models.Session](size, nil, ttl)}
}

func (s *SessionMemoryStore) Save(_ context.Context, session models.Session, _ time.Duration) error {
	s.lru.Add(session.ID, session)
	return nil
}

func (s *SessionMemoryStore) Load(_ context.Context, id string) (*models.Session, error) {
	session, ok := s.lru.Get(id)
	if !ok || session.Expired(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionMemoryStore) Delete(_ context.Context, id string) error {
	s.lru.Remove(id)
	return nil
}
