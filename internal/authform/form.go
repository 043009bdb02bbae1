package authform

import (
	"context"
	"errors"
	"sync"
)

// Phase is the position of a form in its submission cycle.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is a snapshot of the form. Loading and ErrorMessage are never set at
// the same time.
type State struct {
	Phase        Phase
	Loading      bool
	ErrorMessage string
	FieldErrors  FieldErrors
	AccountID    string
	// Email is the address of the successful submission, handed to the OTP step.
	Email string
	// Reason is the underlying failure, kept for callers but never rendered.
	Reason error
}

// Form runs the validate-then-submit cycle for one mode.
//
// Submissions are not deduplicated: two Submit calls racing before either
// sets Loading both reach the backend. Callers render the submit control
// disabled while Loading, which is the only guard.
type Form struct {
	mode     Mode
	accounts Accounts

	mu     sync.Mutex
	values Values
	state  State
}

// New creates an idle form.
func New(mode Mode, accounts Accounts) *Form {
	return &Form{mode: mode, accounts: accounts}
}

// Mode returns the form's mode.
func (f *Form) Mode() Mode { return f.mode }

// State returns a snapshot of the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Values returns the last values passed to Submit.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// CanSubmit reports whether the submit control is enabled.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.state.Loading && f.state.Phase != Succeeded
}

// Submit validates values and, when they pass, makes exactly one account call.
//
// Invalid values only update FieldErrors: no call is made and an earlier
// ErrorMessage stays visible. Once the form has succeeded further submits are
// ignored; the OTP step owns the flow from there.
func (f *Form) Submit(ctx context.Context, values Values) State {
	f.mu.Lock()
	if f.state.Phase == Succeeded {
		defer f.mu.Unlock()
		return f.state
	}
	f.values = values

	in, err := Decode(f.mode, values)
	if err != nil {
		defer f.mu.Unlock()
		var fields FieldErrors
		if !errors.As(err, &fields) {
			fields = FieldErrors{"form": err.Error()}
		}
		f.state.FieldErrors = fields
		return f.state
	}

	f.state.FieldErrors = nil
	f.state.Phase = Submitting
	f.state.Loading = true
	f.state.ErrorMessage = ""
	f.state.Reason = nil
	f.mu.Unlock()

	res := call(ctx, f.accounts, in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Loading = false
	if !res.IsOk() {
		f.state.Phase = Failed
		f.state.ErrorMessage = f.mode.FailureMessage()
		f.state.Reason = res.Reason
		return f.state
	}
	f.state.Phase = Succeeded
	f.state.AccountID = res.AccountID
	f.state.Email = in.EmailAddress()
	return f.state
}
