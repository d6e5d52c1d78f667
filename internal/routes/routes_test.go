package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/moyobank/moyobank/internal/account"
	"github.com/moyobank/moyobank/internal/config"
	"github.com/moyobank/moyobank/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppName:        "moyobank-test",
		AppEnv:         "development",
		Port:           "0",
		JWTSecret:      "test-secret",
		AccessTokenTTL: 15 * time.Minute,
		IdempotencyTTL: time.Minute,
	}
}

func seedApp(t *testing.T) (*fiber.App, account.Repository) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	repo := account.NewMemoryRepository()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ctx := context.Background()
	if _, err := repo.Create(ctx, account.Account{
		Username: "johndoe", Email: "johndoe@example.com", FullName: "John Doe",
		AccountNumber: 1234567890, Balance: 1000, HashedPassword: string(hash),
	}); err != nil {
		t.Fatalf("seed johndoe: %v", err)
	}
	if _, err := repo.Create(ctx, account.Account{
		Username: "janedoe", Email: "janedoe@example.com", FullName: "Jane Doe",
		AccountNumber: 9876543021, Balance: 900, HashedPassword: string(hash),
	}); err != nil {
		t.Fatalf("seed janedoe: %v", err)
	}

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: testConfig(), Cache: cache, Logger: logging.Discard(), Accounts: repo}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app, repo
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, bearer string, headers map[string]string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode, string(payload)
}

func login(t *testing.T, app *fiber.App, username, password string) (int, string, string) {
	t.Helper()
	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/token",
		`{"username":"`+username+`","password":"`+password+`"}`, "", nil)
	if status != fiber.StatusOK {
		return status, "", body
	}
	var parsed struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if parsed.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", parsed.TokenType)
	}
	return status, parsed.AccessToken, body
}

func TestLoginAndCurrentUser(t *testing.T) {
	app, _ := seedApp(t)

	status, tok, _ := login(t, app, "johndoe", "secret")
	if status != fiber.StatusOK {
		t.Fatalf("login status: %d", status)
	}

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/me", "", tok, nil)
	if status != fiber.StatusOK {
		t.Fatalf("me status: %d", status)
	}
	if !strings.Contains(body, `"username":"johndoe"`) {
		t.Fatalf("unexpected me body: %s", body)
	}
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	app, _ := seedApp(t)

	statusWrong, _, bodyWrong := login(t, app, "johndoe", "wrong")
	statusNone, _, bodyNone := login(t, app, "nosuchuser", "secret")

	if statusWrong != fiber.StatusUnauthorized || statusNone != fiber.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", statusWrong, statusNone)
	}
	if bodyWrong != bodyNone {
		t.Fatalf("credential failures must be indistinguishable: %q vs %q", bodyWrong, bodyNone)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := seedApp(t)

	for _, probe := range []struct{ method, path string }{
		{fiber.MethodGet, "/api/v1/accounts"},
		{fiber.MethodPost, "/api/v1/accounts"},
		{fiber.MethodGet, "/api/v1/accounts/1"},
		{fiber.MethodPost, "/api/v1/accounts/transfer"},
		{fiber.MethodGet, "/api/v1/me"},
	} {
		status, _ := doJSON(t, app, probe.method, probe.path, "", "", nil)
		if status != fiber.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", probe.method, probe.path, status)
		}
	}
}

func TestAccountCRUDOverHTTP(t *testing.T) {
	app, _ := seedApp(t)
	_, tok, _ := login(t, app, "johndoe", "secret")

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/accounts", "", tok, nil)
	if status != fiber.StatusOK {
		t.Fatalf("list status: %d", status)
	}
	var accounts []map[string]any
	if err := json.Unmarshal([]byte(body), &accounts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 seeded accounts, got %d", len(accounts))
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/accounts",
		`{"username":"newguy","email":"newguy@example.com","full_name":"New Guy","account_number":555,"balance":50,"password":"hunter2"}`,
		tok, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("create status: %d body: %s", status, body)
	}
	if strings.Contains(body, "hunter2") || strings.Contains(body, "hashed_password") {
		t.Fatalf("password material leaked: %s", body)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/accounts",
		`{"username":"newguy","email":"other@example.com","account_number":556,"password":"x"}`,
		tok, nil)
	if status != fiber.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/accounts/99999", "", tok, nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("missing account: expected 404, got %d", status)
	}
}

func TestTransferOverHTTP(t *testing.T) {
	app, repo := seedApp(t)
	_, tok, _ := login(t, app, "johndoe", "secret")

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/accounts/transfer",
		`{"to_account_number":9876543021,"amount":200}`, tok, nil)
	if status != fiber.StatusOK {
		t.Fatalf("transfer status: %d body: %s", status, body)
	}
	var receipt struct {
		Success    bool  `json:"success"`
		NewBalance int64 `json:"new_balance"`
	}
	if err := json.Unmarshal([]byte(body), &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if !receipt.Success || receipt.NewBalance != 800 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	john, _ := repo.GetByUsername(context.Background(), "johndoe")
	jane, _ := repo.GetByUsername(context.Background(), "janedoe")
	if john.Balance != 800 || jane.Balance != 1100 {
		t.Fatalf("balances after transfer: john=%d jane=%d", john.Balance, jane.Balance)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/accounts/transfer",
		`{"to_account_number":9876543021,"amount":0}`, tok, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("zero amount: expected 400, got %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/accounts/transfer",
		`{"to_account_number":4040404040,"amount":50}`, tok, nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("unknown destination: expected 404, got %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/accounts/transfer",
		`{"to_account_number":9876543021,"amount":100000}`, tok, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("insufficient funds: expected 400, got %d", status)
	}
}

func TestTransferIdempotencyKeyReplays(t *testing.T) {
	app, repo := seedApp(t)
	_, tok, _ := login(t, app, "johndoe", "secret")

	headers := map[string]string{"Idempotency-Key": "txn-1"}

	status, body1 := doJSON(t, app, fiber.MethodPost, "/api/v1/accounts/transfer",
		`{"to_account_number":9876543021,"amount":200}`, tok, headers)
	if status != fiber.StatusOK {
		t.Fatalf("first transfer: %d", status)
	}

	status, body2 := doJSON(t, app, fiber.MethodPost, "/api/v1/accounts/transfer",
		`{"to_account_number":9876543021,"amount":200}`, tok, headers)
	if status != fiber.StatusOK {
		t.Fatalf("replayed transfer: %d", status)
	}
	if body1 != body2 {
		t.Fatalf("replay must return the stored response: %q vs %q", body1, body2)
	}

	// Only one balance move applied for the repeated key.
	john, _ := repo.GetByUsername(context.Background(), "johndoe")
	if john.Balance != 800 {
		t.Fatalf("expected single debit to 800, got %d", john.Balance)
	}
}

func TestLoginRateLimit(t *testing.T) {
	app, _ := seedApp(t)

	var last int
	for i := 0; i < 6; i++ {
		last, _, _ = login(t, app, "bruteforce", "guess")
	}
	if last != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}
