package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestScope(t *testing.T) (*Scope, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewScope(client, "donacrypto"), mr
}

func TestScope_SetGetRemove(t *testing.T) {
	s, mr := newTestScope(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "access_token"); err != nil || ok {
		t.Fatalf("empty scope: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "access_token", "tok", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("donacrypto:access_token") {
		t.Error("key not namespaced")
	}
	v, ok, err := s.Get(ctx, "access_token")
	if err != nil || !ok || v != "tok" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove(ctx, "access_token", "remember_me"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "access_token"); ok {
		t.Error("key still present after Remove")
	}
}

func TestScope_TTLExpires(t *testing.T) {
	s, mr := newTestScope(t)
	ctx := context.Background()

	if err := s.Set(ctx, "access_token", "tok", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "access_token"); ok {
		t.Error("expected key to expire")
	}
}

func TestOpen_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected ping error against closed server")
	}
}

func TestOpen_Success(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Config{Addr: mr.Addr(), Namespace: "ns"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
