package account

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	minFullName = 2
	maxFullName = 50
)

// ErrInvalidFullName is returned when a full name is out of bounds once its
// markup has been stripped.
var ErrInvalidFullName = errors.New("full name must be 2 to 50 characters")

// Passcodes issues and checks the one-time codes that confirm an email.
type Passcodes interface {
	Issue(ctx context.Context, accountID, email string) error
	Verify(ctx context.Context, accountID, code string) error
}

// Service manages the account lifecycle: creation, sign-in and the OTP step
// that completes both.
type Service struct {
	repo      Repository
	passcodes Passcodes
	logger    *slog.Logger
	policy    *bluemonday.Policy
}

// NewService creates a new account service.
func NewService(repo Repository, passcodes Passcodes, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		passcodes: passcodes,
		logger:    logger,
		policy:    bluemonday.StrictPolicy(),
	}
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers fullName/email when the email is new and sends an
// OTP to it. An already registered email is not an error: a fresh OTP is sent
// to the existing account and its id returned.
func (s *Service) CreateAccount(ctx context.Context, fullName, email string) (string, error) {
	email = NormalizeEmail(email)

	acc, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		acc, err = s.create(ctx, fullName, email)
		if err != nil {
			s.logError("create account", email, err)
			return "", err
		}
	case err != nil:
		s.logError("lookup account", email, err)
		return "", err
	}

	if err := s.passcodes.Issue(ctx, acc.ID, acc.Email); err != nil {
		s.logError("send email otp", email, err)
		return "", err
	}
	return acc.ID, nil
}

func (s *Service) create(ctx context.Context, fullName, email string) (Account, error) {
	name := s.sanitizeName(fullName)
	if n := utf8.RuneCountInString(name); n < minFullName || n > maxFullName {
		return Account{}, ErrInvalidFullName
	}
	acc := Account{
		ID:        uuid.New().String(),
		FullName:  name,
		Email:     email,
		Avatar:    DefaultAvatar,
		CreatedAt: time.Now().UTC(),
	}
	err := s.repo.Create(ctx, acc)
	if errors.Is(err, ErrEmailTaken) {
		// Lost a race with a concurrent sign-up for the same email.
		return s.repo.FindByEmail(ctx, email)
	}
	if err != nil {
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

// sanitizeName strips markup from a display name. The policy entity-encodes
// what it keeps, so the text is unescaped again; templates escape on output.
func (s *Service) sanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(name)))
}

// SignInUser sends an OTP to a registered email and returns its account id.
func (s *Service) SignInUser(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.logError("sign in", email, err)
		return "", err
	}
	if err := s.passcodes.Issue(ctx, acc.ID, acc.Email); err != nil {
		s.logError("send email otp", email, err)
		return "", err
	}
	return acc.ID, nil
}

// VerifySecret checks the OTP for accountID and returns the confirmed account.
func (s *Service) VerifySecret(ctx context.Context, accountID, code string) (Account, error) {
	acc, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if err := s.passcodes.Verify(ctx, acc.ID, strings.TrimSpace(code)); err != nil {
		if s.logger != nil {
			s.logger.Info("otp verification failed", slog.String("account_id", acc.ID), slog.Any("error", err))
		}
		return Account{}, err
	}
	return acc, nil
}

// ResendOTP issues a new code for an existing account.
func (s *Service) ResendOTP(ctx context.Context, accountID string) error {
	acc, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	return s.passcodes.Issue(ctx, acc.ID, acc.Email)
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) logError(op, email string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error("account operation failed",
		slog.String("op", op),
		slog.String("email", email),
		slog.Any("error", err),
	)
}
