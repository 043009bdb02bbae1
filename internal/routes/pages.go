package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/storeit/storeit/internal/account"
	"github.com/storeit/storeit/internal/auth"
	"github.com/storeit/storeit/internal/authform"
	"github.com/storeit/storeit/internal/middleware"
	"github.com/storeit/storeit/internal/web"
)

type pages struct {
	accounts     *account.Service
	sessions     *auth.Service
	secureCookie bool
}

const resendFailedMessage = "Failed to resend OTP. Please try again."

// throttled stands in for the account service once a subject is rate limited,
// so the form fails through its usual path without reaching the backend.
type throttled struct{}

func (throttled) CreateAccount(context.Context, string, string) (string, error) {
	return "", middleware.ErrRateLimited
}

func (throttled) SignInUser(context.Context, string) (string, error) {
	return "", middleware.ErrRateLimited
}

// RegisterPageRoutes wires the server-rendered sign-in, sign-up, OTP and home
// pages. Rate limited posts re-render the page with status 429.
func RegisterPageRoutes(app *fiber.App, accounts *account.Service, sessions *auth.Service, secureCookie bool, cache *redis.Client, ratePerMin int) {
	p := &pages{accounts: accounts, sessions: sessions, secureCookie: secureCookie}

	for _, mode := range []authform.Mode{authform.SignIn, authform.SignUp} {
		app.Get(mode.Path(), p.showForm(mode))
		app.Post(mode.Path(), middleware.SignInRateLimitWith(cache, ratePerMin, p.formLimited(mode)), p.submitForm(mode))
	}
	app.Post("/otp/verify", p.verifyOTP)
	app.Post("/otp/resend", middleware.SignInRateLimitWith(cache, ratePerMin, p.resendLimited), p.resendOTP)
	app.Post("/sign-out", p.signOut)
	app.Get("/", middleware.RequireSession(sessions, authform.SignIn.Path()), p.home)
}

func (p *pages) showForm(mode authform.Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render(web.PageAuth, web.NewAuthPage(authform.New(mode, p.accounts)), web.Layout)
	}
}

func (p *pages) submitForm(mode authform.Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var values authform.Values
		if err := c.BodyParser(&values); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		form := authform.New(mode, p.accounts)
		st := form.Submit(c.UserContext(), values)
		if len(st.FieldErrors) > 0 {
			c.Status(http.StatusUnprocessableEntity)
		}
		return c.Render(web.PageAuth, web.NewAuthPage(form), web.Layout)
	}
}

func (p *pages) formLimited(mode authform.Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var values authform.Values
		_ = c.BodyParser(&values)
		form := authform.New(mode, throttled{})
		form.Submit(c.UserContext(), values)
		return c.Status(http.StatusTooManyRequests).Render(web.PageAuth, web.NewAuthPage(form), web.Layout)
	}
}

type otpForm struct {
	Mode      string `form:"mode"`
	AccountID string `form:"accountId"`
	Email     string `form:"email"`
	OTP       string `form:"otp"`
}

func (f otpForm) mode() authform.Mode {
	mode, err := authform.ParseMode(f.Mode)
	if err != nil {
		return authform.SignIn
	}
	return mode
}

func (p *pages) verifyOTP(c *fiber.Ctx) error {
	var req otpForm
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := p.accounts.VerifySecret(c.UserContext(), req.AccountID, req.OTP)
	if err != nil {
		c.Status(http.StatusUnauthorized)
		return c.Render(web.PageAuth, web.NewOTPPage(req.mode(), web.OTPModal{
			AccountID:    req.AccountID,
			Email:        req.Email,
			ErrorMessage: auth.InvalidOTPMessage,
		}), web.Layout)
	}
	tok, err := p.sessions.Issue(acc)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	auth.SetSessionCookie(c, tok, p.secureCookie)
	return c.Redirect("/", http.StatusSeeOther)
}

func (p *pages) resendOTP(c *fiber.Ctx) error {
	var req otpForm
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	modal := web.OTPModal{AccountID: req.AccountID, Email: req.Email, Notice: "A new code is on its way."}
	if err := p.accounts.ResendOTP(c.UserContext(), req.AccountID); err != nil {
		modal.Notice = ""
		modal.ErrorMessage = resendFailedMessage
		if errors.Is(err, account.ErrNotFound) {
			c.Status(http.StatusNotFound)
		}
	}
	return c.Render(web.PageAuth, web.NewOTPPage(req.mode(), modal), web.Layout)
}

func (p *pages) resendLimited(c *fiber.Ctx) error {
	var req otpForm
	_ = c.BodyParser(&req)
	modal := web.OTPModal{AccountID: req.AccountID, Email: req.Email, ErrorMessage: resendFailedMessage}
	return c.Status(http.StatusTooManyRequests).Render(web.PageAuth, web.NewOTPPage(req.mode(), modal), web.Layout)
}

func (p *pages) signOut(c *fiber.Ctx) error {
	auth.ClearSessionCookie(c, p.secureCookie)
	return c.Redirect(authform.SignIn.Path(), http.StatusSeeOther)
}

func (p *pages) home(c *fiber.Ctx) error {
	uid, _ := c.Locals(auth.LocalAccountID).(string)
	acc, err := p.accounts.Get(c.UserContext(), uid)
	if err != nil {
		auth.ClearSessionCookie(c, p.secureCookie)
		return c.Redirect(authform.SignIn.Path(), http.StatusSeeOther)
	}
	return c.Render(web.PageHome, web.NewHomePage(acc), web.Layout)
}
