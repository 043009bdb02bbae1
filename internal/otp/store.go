package otp

import (
	"context"
	"errors"
	"time"
)

// ErrNoCode is returned by a Store when no live code exists for an account.
var ErrNoCode = errors.New("no active code")

// Entry is a stored passcode hash together with its failed attempt count.
type Entry struct {
	Hash     []byte
	Attempts int
}

// Store keeps at most one passcode per account.
type Store interface {
	// Save replaces any existing code for the account and resets attempts.
	Save(ctx context.Context, accountID string, hash []byte, ttl time.Duration) error
	Load(ctx context.Context, accountID string) (Entry, error)
	// IncrAttempts bumps the failed attempt counter and returns the new value.
	IncrAttempts(ctx context.Context, accountID string) (int, error)
	// Consume removes the code only while its stored hash still equals hash
	// and reports whether this call removed it.
	Consume(ctx context.Context, accountID string, hash []byte) (bool, error)
	Delete(ctx context.Context, accountID string) error
}
