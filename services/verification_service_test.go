package services

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestVerificationCodeSingleUse(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := NewVerificationService(rdb, time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != verificationCodeLength {
		t.Fatalf("code %q has length %d, want %d", code, len(code), verificationCodeLength)
	}

	if err := svc.Consume(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	// The code burned on first use
	if err := svc.Consume(ctx, "alice@example.com", code); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("second consume: expected ErrUnauthorized, got %v", err)
	}
}

func TestVerificationWrongCodeKeepsOriginal(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := NewVerificationService(rdb, time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if code == "000000" {
		t.Skip("generated code collides with the guess")
	}
	if err := svc.Consume(ctx, "bob@example.com", "000000"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong code: expected ErrUnauthorized, got %v", err)
	}
	// A failed guess must not destroy the pending code
	if err := svc.Consume(ctx, "bob@example.com", code); err != nil {
		t.Errorf("correct code after failed guess: %v", err)
	}
}

func TestVerificationCodeExpires(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := NewVerificationService(rdb, 50*time.Millisecond)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := svc.Consume(ctx, "carol@example.com", code); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired code: expected ErrUnauthorized, got %v", err)
	}
}
