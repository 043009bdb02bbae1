package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/storeit/storeit/internal/account"
	"github.com/storeit/storeit/internal/authform"
)

// InvalidOTPMessage is shown for any failed passcode check.
const InvalidOTPMessage = "Invalid OTP. Please try again."

// Handler exposes the JSON auth API: sign-up, sign-in, OTP verification and sign-out.
type Handler struct {
	accounts     *account.Service
	svc          *Service
	secureCookie bool
}

func NewHandler(accounts *account.Service, svc *Service, secureCookie bool) *Handler {
	return &Handler{accounts: accounts, svc: svc, secureCookie: secureCookie}
}

type submitResponse struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// SignUp validates fullName/email and creates the account.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	return h.submit(c, authform.SignUp, http.StatusCreated)
}

// SignIn validates email and starts the OTP sign-in.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	return h.submit(c, authform.SignIn, http.StatusOK)
}

func (h *Handler) submit(c *fiber.Ctx, mode authform.Mode, okStatus int) error {
	var values authform.Values
	if err := c.BodyParser(&values); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	st := authform.New(mode, h.accounts).Submit(c.UserContext(), values)
	switch {
	case len(st.FieldErrors) > 0:
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"errors": st.FieldErrors})
	case st.Phase == authform.Failed:
		return fiber.NewError(http.StatusBadRequest, st.ErrorMessage)
	}
	return c.Status(okStatus).JSON(submitResponse{AccountID: st.AccountID, Email: st.Email})
}

type verifyRequest struct {
	AccountID string `json:"accountId"`
	OTP       string `json:"otp"`
}

// VerifyOTP exchanges a valid passcode for a session token.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.AccountID) == "" {
		return fiber.NewError(http.StatusBadRequest, "accountId is required")
	}
	acc, err := h.accounts.VerifySecret(c.UserContext(), req.AccountID, req.OTP)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, InvalidOTPMessage)
	}
	tok, err := h.svc.Issue(acc)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	SetSessionCookie(c, tok, h.secureCookie)
	return c.Status(http.StatusOK).JSON(tok)
}

type resendRequest struct {
	AccountID string `json:"accountId"`
}

// ResendOTP sends a fresh passcode, replacing the previous one.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.accounts.ResendOTP(c.UserContext(), req.AccountID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusBadRequest, "Failed to resend OTP. Please try again.")
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "sent"})
}

// SignOut clears the session cookie. Tokens are stateless and stay valid
// until they expire.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	ClearSessionCookie(c, h.secureCookie)
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "signed_out"})
}

// Me returns the signed-in account.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals(LocalAccountID).(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	acc, err := h.accounts.Get(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "account not found")
	}
	return c.JSON(fiber.Map{
		"accountId": acc.ID,
		"fullName":  acc.FullName,
		"email":     acc.Email,
		"avatar":    acc.Avatar,
		"createdAt": acc.CreatedAt,
	})
}
