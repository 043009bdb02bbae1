package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/storeit/storeit/internal/auth"
	"github.com/storeit/storeit/internal/config"
	"github.com/storeit/storeit/internal/logging"
	"github.com/storeit/storeit/internal/notification"
	"github.com/storeit/storeit/internal/web"
)

var codePattern = regexp.MustCompile(`>(\d{6})<`)

type inbox struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (i *inbox) Send(_ context.Context, m notification.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, m)
	return nil
}

func (i *inbox) lastCode(t *testing.T, email string) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	for n := len(i.messages) - 1; n >= 0; n-- {
		m := i.messages[n]
		if m.Destination != email {
			continue
		}
		match := codePattern.FindStringSubmatch(m.Body)
		if match == nil {
			t.Fatalf("no code in body %q", m.Body)
		}
		return match[1]
	}
	t.Fatalf("no message for %s", email)
	return ""
}

func (i *inbox) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.messages)
}

func setupApp(t *testing.T) (*fiber.App, *inbox) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	cfg := config.Config{
		AppName:          "StoreIt",
		AppEnv:           "test",
		SessionSecret:    "test-secret",
		SessionTTL:       time.Hour,
		OTPTTL:           10 * time.Minute,
		SignInRatePerMin: 5,
	}
	logger := logging.Discard()
	box := &inbox{}
	app := fiber.New(fiber.Config{Views: web.NewViews()})
	if err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logger, Notifier: box}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app, box
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, string(body)
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func jsonRequest(path string, payload any) *http.Request {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookie && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestSignUpPageRenders(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/sign-up", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Full Name") || !strings.Contains(body, `href="/sign-in"`) {
		t.Fatalf("unexpected page:\n%s", body)
	}
}

func TestSignUpPageValidationBlocksSubmission(t *testing.T) {
	app, box := setupApp(t)

	resp, body := do(t, app, formRequest("/sign-up", url.Values{"fullName": {"A"}, "email": {"bad"}}))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Invalid email") || !strings.Contains(body, "at least 2 character(s)") {
		t.Fatalf("expected inline errors:\n%s", body)
	}
	if box.count() != 0 {
		t.Fatalf("validation failure must not reach the account backend")
	}
}

func TestHTMLSignUpOTPFlow(t *testing.T) {
	app, box := setupApp(t)

	resp, body := do(t, app, formRequest("/sign-up", url.Values{"fullName": {"Ada Lovelace"}, "email": {"ada@example.com"}}))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Enter Your OTP") {
		t.Fatalf("expected OTP modal, got %d:\n%s", resp.StatusCode, body)
	}
	match := regexp.MustCompile(`name="accountId" value="([^"]+)"`).FindStringSubmatch(body)
	if match == nil {
		t.Fatalf("no account id in modal")
	}
	accountID := match[1]
	code := box.lastCode(t, "ada@example.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	resp, body = do(t, app, formRequest("/otp/verify", url.Values{
		"mode": {"sign-up"}, "accountId": {accountID}, "email": {"ada@example.com"}, "otp": {wrong},
	}))
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid OTP. Please try again.") {
		t.Fatalf("expected invalid otp page, got %d:\n%s", resp.StatusCode, body)
	}

	resp, _ = do(t, app, formRequest("/otp/verify", url.Values{
		"mode": {"sign-up"}, "accountId": {accountID}, "email": {"ada@example.com"}, "otp": {code},
	}))
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get(fiber.HeaderLocation) != "/" {
		t.Fatalf("expected redirect home, got %d %q", resp.StatusCode, resp.Header.Get(fiber.HeaderLocation))
	}
	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}

	home := httptest.NewRequest(fiber.MethodGet, "/", nil)
	home.AddCookie(cookie)
	resp, body = do(t, app, home)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Signed in as Ada Lovelace") {
		t.Fatalf("unexpected home %d:\n%s", resp.StatusCode, body)
	}
}

func TestHomeRedirectsWithoutSession(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := do(t, app, httptest.NewRequest(fiber.MethodGet, "/", nil))
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get(fiber.HeaderLocation) != "/sign-in" {
		t.Fatalf("expected redirect to sign in, got %d", resp.StatusCode)
	}
}

func TestHTMLSignInUnknownEmailShowsFailure(t *testing.T) {
	app, box := setupApp(t)

	resp, body := do(t, app, formRequest("/sign-in", url.Values{"email": {"nobody@example.com"}, "fullName": {"x"}}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "*Failed to sign in. Please try again.") || strings.Contains(body, "Enter Your OTP") {
		t.Fatalf("expected failure message only:\n%s", body)
	}
	if box.count() != 0 {
		t.Fatalf("no OTP should be sent")
	}
}

func TestAPISignUpVerifyAndMe(t *testing.T) {
	app, box := setupApp(t)

	resp, body := do(t, app, jsonRequest("/api/v1/auth/sign-up", map[string]string{"fullName": "Grace Hopper", "email": "grace@example.com"}))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.StatusCode, body)
	}
	var created struct {
		AccountID string `json:"accountId"`
		Email     string `json:"email"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.AccountID == "" || created.Email != "grace@example.com" {
		t.Fatalf("unexpected response %+v", created)
	}

	// Signing in afterwards reuses the same account.
	resp, body = do(t, app, jsonRequest("/api/v1/auth/sign-in", map[string]string{"email": "grace@example.com"}))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, created.AccountID) {
		t.Fatalf("unexpected sign in %d: %s", resp.StatusCode, body)
	}

	code := box.lastCode(t, "grace@example.com")
	resp, body = do(t, app, jsonRequest("/api/v1/auth/otp/verify", map[string]string{"accountId": created.AccountID, "otp": code}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.StatusCode, body)
	}
	var tok struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
	}
	if err := json.Unmarshal([]byte(body), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.Token == "" || tok.ExpiresIn != 3600 {
		t.Fatalf("unexpected token %+v", tok)
	}

	me := httptest.NewRequest(fiber.MethodGet, "/api/v1/me", nil)
	me.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok.Token)
	resp, body = do(t, app, me)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"fullName":"Grace Hopper"`) {
		t.Fatalf("unexpected me %d: %s", resp.StatusCode, body)
	}
}

func TestAPIValidationAndFailure(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := do(t, app, jsonRequest("/api/v1/auth/sign-up", map[string]string{"email": "ada@example.com"}))
	if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(body, `"fullName"`) {
		t.Fatalf("expected 422 with fullName error, got %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, app, jsonRequest("/api/v1/auth/sign-in", map[string]string{"email": "nobody@example.com"}))
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Failed to sign in. Please try again.") {
		t.Fatalf("expected collapsed failure, got %d: %s", resp.StatusCode, body)
	}
}

func TestAPIVerifyRejectsWrongCode(t *testing.T) {
	app, box := setupApp(t)

	_, body := do(t, app, jsonRequest("/api/v1/auth/sign-up", map[string]string{"fullName": "Ada", "email": "ada@example.com"}))
	var created struct {
		AccountID string `json:"accountId"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wrong := "000000"
	if box.lastCode(t, "ada@example.com") == wrong {
		wrong = "111111"
	}

	resp, body := do(t, app, jsonRequest("/api/v1/auth/otp/verify", map[string]string{"accountId": created.AccountID, "otp": wrong}))
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid OTP") {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, body)
	}
}

func TestSignInRateLimited(t *testing.T) {
	app, _ := setupApp(t)

	var last *http.Response
	for i := 0; i < 6; i++ {
		last, _ = do(t, app, jsonRequest("/api/v1/auth/sign-in", map[string]string{"email": "ada@example.com"}))
	}
	if last.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last.StatusCode)
	}
}

func TestSignUpPageRateLimitedRendersForm(t *testing.T) {
	app, box := setupApp(t)
	form := url.Values{"fullName": {"Ada Lovelace"}, "email": {"ada@example.com"}}

	for i := 0; i < 5; i++ {
		if resp, _ := do(t, app, formRequest("/sign-up", form)); resp.StatusCode != http.StatusOK {
			t.Fatalf("submission %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	resp, body := do(t, app, formRequest("/sign-up", form))

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMETextHTML) {
		t.Fatalf("expected html page, got %s", resp.Header.Get(fiber.HeaderContentType))
	}
	for _, want := range []string{"*Failed to create account. Please try again.", `value="ada@example.com"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Enter Your OTP") {
		t.Fatalf("limited submission must not open the OTP modal")
	}
	if box.count() != 5 {
		t.Fatalf("expected 5 codes sent, got %d", box.count())
	}
}

func TestThumbnailEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	_, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/thumbnail?type=image&extension=svg&url=x.svg", nil))
	if !strings.Contains(body, `"src":"/assets/icons/file-image.svg"`) || !strings.Contains(body, `"isImage":false`) {
		t.Fatalf("unexpected svg thumbnail %s", body)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/thumbnail?type=image&extension=png&url=x.png", nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	resp, body := do(t, app, req)
	if !strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMETextHTML) || !strings.Contains(body, `src="x.png"`) {
		t.Fatalf("unexpected html thumbnail %s", body)
	}

	_, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/files/icon?name=report.pdf", nil))
	if !strings.Contains(body, `"icon":"/assets/icons/file-pdf.svg"`) || !strings.Contains(body, `"type":"document"`) {
		t.Fatalf("unexpected icon response %s", body)
	}
}

func TestHealthz(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"redis":"ok"`) || !strings.Contains(body, `"postgres":"disabled"`) {
		t.Fatalf("unexpected health %d: %s", resp.StatusCode, body)
	}
}
