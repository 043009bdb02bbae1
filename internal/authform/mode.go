package authform

import "fmt"

// Mode selects between the sign-in and sign-up variants of the form.
type Mode string

const (
	SignIn Mode = "sign-in"
	SignUp Mode = "sign-up"
)

// ParseMode maps a route segment such as "sign-up" onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case SignIn, SignUp:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown form mode %q", s)
	}
}

// Title is the heading and submit label.
func (m Mode) Title() string {
	if m == SignIn {
		return "Sign In"
	}
	return "Sign Up"
}

// Path is the route that renders this mode.
func (m Mode) Path() string { return "/" + string(m) }

// Other returns the opposite mode, the target of the navigation link.
func (m Mode) Other() Mode {
	if m == SignIn {
		return SignUp
	}
	return SignIn
}

// SwitchPrompt is the text shown before the link to the other mode.
func (m Mode) SwitchPrompt() string {
	if m == SignIn {
		return "You don't have an account? "
	}
	return "Already have an account? "
}

// FailureMessage is the only error text shown when submission fails.
func (m Mode) FailureMessage() string {
	if m == SignUp {
		return "Failed to create account. Please try again."
	}
	return "Failed to sign in. Please try again."
}
