package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTokenStoreSetsAndClearsKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewTokenStore(newClient(mr), time.Hour)

	if _, ok, err := store.Token(ctx); err != nil || ok {
		t.Fatalf("expected missing token, got ok=%v err=%v", ok, err)
	}

	if err := store.SaveToken(ctx, "tok-1"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if !mr.Exists(tokenKey) {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL(tokenKey); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	tok, ok, err := store.Token(ctx)
	if err != nil || !ok || tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q ok=%v err=%v", tok, ok, err)
	}

	if err := store.DeleteToken(ctx); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if mr.Exists(tokenKey) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestTokenStoreExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewTokenStore(newClient(mr), time.Minute)
	_ = store.SaveToken(ctx, "tok-1")

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Token(ctx); ok {
		t.Fatalf("expected token to expire")
	}
}

func TestTokenStoreReportsConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewTokenStore(client, time.Minute)
	if _, _, err := store.Token(context.Background()); err == nil {
		t.Fatalf("expected error from closed redis")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
