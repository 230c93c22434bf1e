package funnel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("funnel session not found or expired")

// Store persists funnel sessions in Redis with a sliding TTL, so abandoned
// sessions clean themselves up.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "funnel:session:" + sessionID
}

func (s *Store) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal funnel state: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(state.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save funnel state: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (State, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrSessionNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load funnel state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode funnel state: %w", err)
	}
	return state, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}
