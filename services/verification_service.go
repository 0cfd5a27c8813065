package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const verificationCodeLength = 6

// consumeScript deletes the code only when it matches, so a lucky
// guess can never burn someone else's pending code.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// VerificationService issues short-lived one-time codes (password
// reset). Codes live in Redis under a TTL: created on issue, destroyed
// on use or expiry, never held in process memory.
type VerificationService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewVerificationService(rdb *redis.Client, ttl time.Duration) *VerificationService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VerificationService{rdb: rdb, ttl: ttl}
}

// Issue stores a fresh numeric code for the email, replacing any
// earlier one, and returns it for delivery.
func (s *VerificationService) Issue(ctx context.Context, email string) (string, error) {
	code := ""
	for i := 0; i < verificationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		code += n.String()
	}

	if err := s.rdb.Set(ctx, s.key(email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// Consume validates and burns the code in one atomic step. Expired,
// absent or mismatched codes all come back as ErrUnauthorized.
func (s *VerificationService) Consume(ctx context.Context, email, code string) error {
	deleted, err := consumeScript.Run(ctx, s.rdb, []string{s.key(email)}, code).Int()
	if err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: invalid or expired verification code", ErrUnauthorized)
	}
	return nil
}

func (s *VerificationService) key(email string) string {
	return "verify:" + email
}
