package lock

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Requires a reachable Redis; set REDIS_ADDR to run.
func TestRedisLock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	l := NewRedis(client, time.Minute, nil)
	key := "test-" + t.Name()

	unlock, err := l.Lock(ctx, key)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(waitCtx, key); err == nil {
		t.Fatal("second Lock() succeeded while the key was held")
	}

	unlock()

	unlock2, err := l.Lock(ctx, key)
	if err != nil {
		t.Fatalf("Lock() after unlock error = %v", err)
	}
	unlock2()
}

func TestRedisReleaseFailureIsLogged(t *testing.T) {
	// Grab a free port and close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	defer client.Close()

	core, logs := observer.New(zap.WarnLevel)
	l := NewRedis(client, time.Minute, zap.New(core))

	if err := l.release("m1", "token"); err == nil {
		t.Fatal("release() against an unreachable server returned nil")
	}

	entries := logs.FilterMessage("Failed to release message lock; it stays held until it expires").All()
	if len(entries) != 1 {
		t.Fatalf("release warnings = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["key"]; got != "m1" {
		t.Errorf("logged key = %v, want m1", got)
	}
}
