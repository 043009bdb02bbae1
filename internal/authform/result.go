package authform

import (
	"context"
	"errors"
)

// Accounts is the backend the form submits to.
type Accounts interface {
	CreateAccount(ctx context.Context, fullName, email string) (string, error)
	SignInUser(ctx context.Context, email string) (string, error)
}

var errNoAccountID = errors.New("account operation returned no account id")

// Result is the outcome of one account call: an account id or the reason it
// failed. The form shows a fixed message either way but keeps the reason.
type Result struct {
	AccountID string
	Reason    error
}

// Ok builds a successful Result.
func Ok(accountID string) Result { return Result{AccountID: accountID} }

// Err builds a failed Result.
func Err(reason error) Result { return Result{Reason: reason} }

// IsOk reports whether the call produced an account id.
func (r Result) IsOk() bool { return r.Reason == nil }

// call invokes the account operation that matches the input shape.
func call(ctx context.Context, accounts Accounts, in Input) Result {
	var (
		id  string
		err error
	)
	switch v := in.(type) {
	case SignUpInput:
		id, err = accounts.CreateAccount(ctx, v.FullName, v.Email)
	case SignInInput:
		id, err = accounts.SignInUser(ctx, v.Email)
	}
	if err != nil {
		return Err(err)
	}
	if id == "" {
		return Err(errNoAccountID)
	}
	return Ok(id)
}
