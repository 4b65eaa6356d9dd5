package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	ctx := context.Background()

	err := store.Put(ctx, &Session{
		Phone: "+34911222333",
		State: StateAwaitingTime,
		Kind:  "takeaway",
		Name:  "Juan",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "+34911222333")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.State != StateAwaitingTime || got.Name != "Juan" {
		t.Fatalf("got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Put must stamp UpdatedAt")
	}
}

func TestMemoryStoreAbsent(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)

	got, err := store.Get(context.Background(), "+34000000000")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("absent phone should yield nil, got %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	if err := store.Put(ctx, &Session{Phone: "+34911222333", State: StateAwaitingName}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)

	got, err := store.Get(ctx, "+34911222333")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expired session should yield nil, got %+v", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, &Session{Phone: "+34911222333", State: StateAwaitingKind}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "+34911222333"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "+34911222333")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("deleted session should yield nil, got %+v", got)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, &Session{Phone: "+34911222333", State: StateAwaitingKind}); err != nil {
		t.Fatal(err)
	}
	first, err := store.Get(ctx, "+34911222333")
	if err != nil {
		t.Fatal(err)
	}
	first.State = StateCancelling

	second, err := store.Get(ctx, "+34911222333")
	if err != nil {
		t.Fatal(err)
	}
	if second.State != StateAwaitingKind {
		t.Error("mutating a returned session must not touch the stored one")
	}
}
