package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	session := NewSession()
	session.Draft.FirstName = "Jean"
	session.Draft.BillingDifferent = true
	session.Draft.BillingStreet = "3 rue Cachée"

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load(ctx, session.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.State != StateEditing || loaded.Draft.FirstName != "Jean" {
		t.Fatalf("unexpected session: %+v", loaded)
	}
	if !loaded.Draft.BillingDifferent || loaded.Draft.BillingStreet != "3 rue Cachée" {
		t.Fatal("toggle and hidden values must round-trip through the store")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	session := NewSession()
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Load(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	session := NewSession()
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("deleted session should be gone, got %v", err)
	}
}

func TestSessionStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	if _, err := store.Load(context.Background(), "no-such-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
