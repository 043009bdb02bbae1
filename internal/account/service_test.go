package account

import (
	"context"
	"errors"
	"testing"

	"github.com/storeit/storeit/internal/logging"
)

type fakePasscodes struct {
	issued map[string]string
	code   string
	err    error
}

func newFakePasscodes() *fakePasscodes {
	return &fakePasscodes{issued: make(map[string]string), code: "123456"}
}

func (f *fakePasscodes) Issue(_ context.Context, accountID, email string) error {
	if f.err != nil {
		return f.err
	}
	f.issued[accountID] = email
	return nil
}

func (f *fakePasscodes) Verify(_ context.Context, accountID, code string) error {
	if _, ok := f.issued[accountID]; !ok || code != f.code {
		return errors.New("invalid code")
	}
	delete(f.issued, accountID)
	return nil
}

func TestCreateAccountAndVerify(t *testing.T) {
	repo := NewMemoryRepository()
	codes := newFakePasscodes()
	svc := NewService(repo, codes, logging.Discard())
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "Ada Lovelace", "  Ada@Example.com ")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if codes.issued[id] != "ada@example.com" {
		t.Fatalf("expected otp sent to normalised email, got %q", codes.issued[id])
	}

	acc, err := svc.VerifySecret(ctx, id, " 123456 ")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if acc.FullName != "Ada Lovelace" || acc.Avatar != DefaultAvatar {
		t.Fatalf("unexpected account %+v", acc)
	}
}

func TestCreateAccountExistingEmailReusesAccount(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, newFakePasscodes(), logging.Discard())
	ctx := context.Background()

	first, err := svc.CreateAccount(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.CreateAccount(ctx, "Someone Else", "ADA@example.com")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Fatalf("expected same account id, got %s and %s", first, second)
	}
}

func TestCreateAccountSanitizesFullName(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, newFakePasscodes(), logging.Discard())
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "<b>Ada</b><script>alert(1)</script>", "ada@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	acc, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if acc.FullName != "Ada" {
		t.Fatalf("expected markup stripped, got %q", acc.FullName)
	}
}

func TestCreateAccountRejectsNameEmptiedBySanitizing(t *testing.T) {
	repo := NewMemoryRepository()
	codes := newFakePasscodes()
	svc := NewService(repo, codes, logging.Discard())
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "<b></b><i></i>", "ada@example.com")
	if !errors.Is(err, ErrInvalidFullName) {
		t.Fatalf("expected ErrInvalidFullName, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "ada@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("account must not be stored, got %v", err)
	}
	if len(codes.issued) != 0 {
		t.Fatalf("no OTP may be sent for a rejected name")
	}

	if _, err := svc.CreateAccount(ctx, "<b>A</b>", "ada@example.com"); !errors.Is(err, ErrInvalidFullName) {
		t.Fatalf("expected one-rune name rejected, got %v", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository(), newFakePasscodes(), logging.Discard())

	if _, err := svc.SignInUser(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSignInPropagatesDeliveryFailure(t *testing.T) {
	repo := NewMemoryRepository()
	codes := newFakePasscodes()
	svc := NewService(repo, codes, logging.Discard())
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	codes.err = errors.New("smtp down")
	if _, err := svc.SignInUser(ctx, "ada@example.com"); err == nil {
		t.Fatalf("expected delivery error")
	}
}

func TestVerifySecretUnknownAccount(t *testing.T) {
	svc := NewService(NewMemoryRepository(), newFakePasscodes(), logging.Discard())

	if _, err := svc.VerifySecret(context.Background(), "missing", "123456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAccountKeepsPlainAmpersand(t *testing.T) {
	svc := NewService(NewMemoryRepository(), newFakePasscodes(), logging.Discard())
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "Tom & Jerry", "tj@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	acc, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if acc.FullName != "Tom & Jerry" {
		t.Fatalf("expected raw ampersand, got %q", acc.FullName)
	}
}
