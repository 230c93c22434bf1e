package funnel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t, time.Minute)
	ctx := context.Background()

	state, _, err := NewState("sess-1", "quote")
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	state.Answers["service"] = "deck"

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SessionID != "sess-1" || loaded.FunnelID != "quote" {
		t.Fatalf("loaded wrong session: %+v", loaded)
	}
	if loaded.Answers["service"] != "deck" {
		t.Fatalf("answers not persisted: %+v", loaded.Answers)
	}
}

func TestStoreLoadUnknownSession(t *testing.T) {
	store := newTestStore(t, time.Minute)

	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreDeleteRemovesSession(t *testing.T) {
	store := newTestStore(t, time.Minute)
	ctx := context.Background()

	state, _, err := NewState("sess-2", "quote")
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "sess-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Load(ctx, "sess-2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}
