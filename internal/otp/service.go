package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/storeit/storeit/internal/notification"
)

const (
	codeDigits         = 6
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5
)

var (
	ErrInvalidCode     = errors.New("invalid code")
	ErrCodeExpired     = errors.New("code expired or not issued")
	ErrTooManyAttempts = errors.New("too many attempts")
)

var codeModulus = big.NewInt(1_000_000)

// Service issues and verifies email one-time passcodes.
type Service struct {
	store       Store
	notifier    notification.Notifier
	ttl         time.Duration
	maxAttempts int
	logger      *slog.Logger
	generate    func() (string, error)
}

// NewService creates a passcode service. A zero ttl uses DefaultTTL.
func NewService(store Store, notifier notification.Notifier, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		ttl:         ttl,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
		generate:    generateCode,
	}
}

// Issue creates a fresh code for the account, replacing any previous one, and
// sends it to email.
func (s *Service) Issue(ctx context.Context, accountID, email string) error {
	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.store.Save(ctx, accountID, hash, s.ttl); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	msg := notification.Message{
		Kind:        notification.KindEmailOTP,
		Destination: email,
		Subject:     "Your StoreIt verification code",
		Body:        renderEmail(code, s.ttl),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		// An undeliverable code must not stay verifiable.
		if delErr := s.store.Delete(ctx, accountID); delErr != nil && s.logger != nil {
			s.logger.Warn("otp cleanup failed", slog.String("account_id", accountID), slog.Any("error", delErr))
		}
		return fmt.Errorf("deliver code: %w", err)
	}
	return nil
}

// Verify checks code against the active passcode. A successful check consumes
// the passcode.
//
// The attempt is counted before the hash comparison, so concurrent guesses
// cannot exceed maxAttempts, and only the request whose Consume removes the
// code succeeds.
func (s *Service) Verify(ctx context.Context, accountID, code string) error {
	entry, err := s.store.Load(ctx, accountID)
	if errors.Is(err, ErrNoCode) {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if entry.Attempts >= s.maxAttempts {
		return ErrTooManyAttempts
	}

	attempts, err := s.store.IncrAttempts(ctx, accountID)
	if errors.Is(err, ErrNoCode) {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if attempts > s.maxAttempts {
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(entry.Hash, []byte(code)) != nil {
		if attempts >= s.maxAttempts {
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	consumed, err := s.store.Consume(ctx, accountID, entry.Hash)
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if !consumed {
		return ErrCodeExpired
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeModulus)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func renderEmail(code string, ttl time.Duration) string {
	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;font-size:16px;color:#222;max-width:420px;margin:auto;padding:32px 24px;">
<p>Dear user,</p>
<p>Use the code below to finish signing in to StoreIt.</p>
<p style="text-align:center;font-size:32px;font-weight:bold;letter-spacing:4px;">%s</p>
<p>This code is valid for <b>%d minutes</b>. Please do not share it with anyone.</p>
<p>If you did not request this code, you can safely ignore this email.</p>
</div>`, code, int(ttl.Minutes()))
}
