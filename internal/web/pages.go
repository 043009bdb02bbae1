package web

import (
	"github.com/storeit/storeit/internal/account"
	"github.com/storeit/storeit/internal/authform"
	"github.com/storeit/storeit/internal/thumbnail"
)

// OTPModal is the confirmation surface shown after a successful submission.
type OTPModal struct {
	Mode         authform.Mode
	AccountID    string
	Email        string
	ErrorMessage string
	Notice       string
}

// AuthPage is the data for the sign-in and sign-up pages.
type AuthPage struct {
	Title string
	Form  authform.View
	OTP   *OTPModal
}

// NewAuthPage builds page data from a form, opening the OTP modal when the
// form holds an account id.
func NewAuthPage(f *authform.Form) AuthPage {
	view := f.View()
	page := AuthPage{Title: view.Title, Form: view}
	if view.ShowOTP {
		page.OTP = &OTPModal{Mode: view.Mode, AccountID: view.State.AccountID, Email: view.State.Email}
	}
	return page
}

// NewOTPPage re-opens the OTP modal over an idle form of the given mode, used
// after a failed verification or a resend.
func NewOTPPage(mode authform.Mode, modal OTPModal) AuthPage {
	view := authform.New(mode, nil).View()
	view.Values.Email = modal.Email
	modal.Mode = mode
	return AuthPage{Title: view.Title, Form: view, OTP: &modal}
}

// HomePage is shown to a signed-in account.
type HomePage struct {
	Title   string
	Account account.Account
	Avatar  thumbnail.Input
}

// NewHomePage builds the home page for acc.
func NewHomePage(acc account.Account) HomePage {
	kind := thumbnail.FileType(acc.Avatar)
	return HomePage{
		Title:   "Home",
		Account: acc,
		Avatar: thumbnail.Input{
			FileType:   kind.Type,
			Extension:  kind.Extension,
			URL:        acc.Avatar,
			ImageClass: "rounded-full",
		},
	}
}
