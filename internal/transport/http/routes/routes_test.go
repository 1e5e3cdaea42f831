package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/infra/security"
	"github.com/ZelseeH/CyberB/internal/repository"
	"github.com/ZelseeH/CyberB/internal/transport/http/handlers"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// memoryAccountRepo holds accounts keyed by ID, enough to exercise the
// middleware chain and the admin endpoints end to end.
type memoryAccountRepo struct {
	accounts map[string]*domain.Account
	history  map[string][]domain.PasswordHistoryEntry
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{
		accounts: make(map[string]*domain.Account),
		history:  make(map[string][]domain.PasswordHistoryEntry),
	}
}

func (r *memoryAccountRepo) put(account domain.Account) {
	copied := account
	r.accounts[account.ID] = &copied
}

func (r *memoryAccountRepo) Create(_ context.Context, account domain.Account) error {
	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return repository.ErrConflict
		}
	}
	r.put(account)
	return nil
}

func (r *memoryAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *memoryAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, account := range r.accounts {
		if account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryAccountRepo) List(context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	for _, account := range r.accounts {
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func (r *memoryAccountRepo) UpdateProfile(_ context.Context, id, fullName string, expiryDays int) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FullName = fullName
	account.PasswordExpiryDays = expiryDays
	return nil
}

func (r *memoryAccountRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.IsBlocked = blocked
	return nil
}

func (r *memoryAccountRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *memoryAccountRepo) RecordFailure(_ context.Context, id string, at time.Time, limit int) (int, error) {
	account, ok := r.accounts[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	account.FailedAttempts++
	stamp := at
	account.LastFailedAttempt = &stamp
	if account.FailedAttempts >= limit {
		lockout := at
		account.LastLockout = &lockout
	}
	return account.FailedAttempts, nil
}

func (r *memoryAccountRepo) ResetLockout(_ context.Context, id string) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FailedAttempts = 0
	account.LastFailedAttempt = nil
	account.LastLockout = nil
	return nil
}

func (r *memoryAccountRepo) UpdateCredentials(_ context.Context, id string, update domain.CredentialUpdate) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = update.PasswordHash
	account.OTPHash = update.OTPHash
	account.OTPEnabled = update.OTPEnabled
	account.ResetWithOTP = update.ResetWithOTP
	account.MustChangePassword = update.MustChangePassword
	account.LastPasswordChange = update.ChangedAt
	if update.RetiredHash != "" {
		r.history[id] = append(r.history[id], domain.PasswordHistoryEntry{
			AccountID:    id,
			PasswordHash: update.RetiredHash,
			RetiredAt:    update.ChangedAt,
		})
	}
	return nil
}

func (r *memoryAccountRepo) ConsumeOTP(_ context.Context, id string, at time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.OTPEnabled = false
	account.OTPHash = nil
	account.MustChangePassword = true
	account.LastPasswordChange = at
	return nil
}

func (r *memoryAccountRepo) ListPasswordHistory(_ context.Context, accountID string) ([]domain.PasswordHistoryEntry, error) {
	return append([]domain.PasswordHistoryEntry(nil), r.history[accountID]...), nil
}

type memorySettingsRepo struct {
	policy *domain.PasswordPolicy
	system *domain.SystemSettings
}

func (r *memorySettingsRepo) GetPasswordPolicy(context.Context) (*domain.PasswordPolicy, error) {
	if r.policy == nil {
		return nil, repository.ErrNotFound
	}
	copied := *r.policy
	return &copied, nil
}

func (r *memorySettingsRepo) SavePasswordPolicy(_ context.Context, policy domain.PasswordPolicy) error {
	r.policy = &policy
	return nil
}

func (r *memorySettingsRepo) GetSystemSettings(context.Context) (*domain.SystemSettings, error) {
	if r.system == nil {
		return nil, repository.ErrNotFound
	}
	copied := *r.system
	return &copied, nil
}

func (r *memorySettingsRepo) SaveSystemSettings(_ context.Context, settings domain.SystemSettings) error {
	r.system = &settings
	return nil
}

type memoryAuditRepo struct {
	entries []domain.AuditEntry
}

func (r *memoryAuditRepo) Append(_ context.Context, entry domain.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryAuditRepo) List(context.Context) ([]domain.AuditEntry, error) {
	return append([]domain.AuditEntry(nil), r.entries...), nil
}

type nopPublisher struct{}

func (nopPublisher) PublishLoginSucceeded(context.Context, domain.LoginSucceededEvent) error   { return nil }
func (nopPublisher) PublishLoginFailed(context.Context, domain.LoginFailedEvent) error         { return nil }
func (nopPublisher) PublishAccountLocked(context.Context, domain.AccountLockedEvent) error     { return nil }
func (nopPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error { return nil }
func (nopPublisher) PublishCredentialReset(context.Context, domain.CredentialResetEvent) error { return nil }
func (nopPublisher) PublishAccountLifecycle(context.Context, domain.AccountLifecycleEvent) error {
	return nil
}

// routerFixture is a fully registered engine with one admin and one regular
// account, plus a bearer token for each.
type routerFixture struct {
	engine     *gin.Engine
	accounts   *memoryAccountRepo
	adminToken string
	userToken  string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := newMemoryAccountRepo()
	settings := &memorySettingsRepo{}
	audit := &memoryAuditRepo{}
	events := nopPublisher{}
	log := zaptest.NewLogger(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accounts.put(domain.Account{ID: "acc-admin", Username: "ADMIN", IsAdmin: true, CreatedAt: now, LastPasswordChange: now})
	accounts.put(domain.Account{ID: "acc-user", Username: "jsmith", CreatedAt: now, LastPasswordChange: now})

	tokens, err := security.NewTokenManager("routes-test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	recorder := usecase.NewAuditRecorder(audit, log)
	authService := usecase.NewAuthService(accounts, settings, tokens,
		usecase.NewLockoutPolicy(accounts, 15*time.Minute), recorder, events, log)
	passwordService := usecase.NewPasswordService(accounts, settings, recorder, events, "User123!", log)
	accountService := usecase.NewAccountService(accounts, recorder, events, "User123!", "ADMIN", log)
	settingsService := usecase.NewSettingsService(settings, recorder, log)

	engine := gin.New()
	Register(engine, Dependencies{
		Logger:          log,
		Auth:            authService,
		AuthHandler:     handlers.NewAuthHandler(authService, log),
		AccountsHandler: handlers.NewAccountsHandler(accountService, passwordService, log),
		SettingsHandler: handlers.NewSettingsHandler(settingsService),
		LogsHandler:     handlers.NewLogsHandler(recorder),
		HealthHandler:   handlers.NewHealthHandler(nil),
	})

	adminToken, err := tokens.Issue(*accounts.accounts["acc-admin"])
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}
	userToken, err := tokens.Issue(*accounts.accounts["acc-user"])
	if err != nil {
		t.Fatalf("issue user token: %v", err)
	}

	return &routerFixture{
		engine:     engine,
		accounts:   accounts,
		adminToken: adminToken,
		userToken:  userToken,
	}
}

func (f *routerFixture) request(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestSettingsReadableByAnyAuthenticatedUser(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.request(http.MethodGet, "/api/v1/settings/password-policy", f.userToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a non-admin policy read, got %d: %s", rec.Code, rec.Body.String())
	}

	var policy handlers.PasswordPolicyPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &policy); err != nil {
		t.Fatalf("decode policy: %v", err)
	}
	if policy.MinLength != 8 {
		t.Fatalf("expected the default policy, got %+v", policy)
	}

	rec = f.request(http.MethodGet, "/api/v1/settings/system", f.userToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a non-admin settings read, got %d", rec.Code)
	}

	// Unauthenticated reads stay rejected.
	rec = f.request(http.MethodGet, "/api/v1/settings/password-policy", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestSettingsWritesStayAdminOnly(t *testing.T) {
	f := newRouterFixture(t)

	body := `{"min_length":10,"require_capital_letter":true,"require_special_char":true,"require_digits":1}`

	rec := f.request(http.MethodPut, "/api/v1/settings/password-policy", f.userToken, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin policy write, got %d", rec.Code)
	}

	rec = f.request(http.MethodPut, "/api/v1/settings/password-policy", f.adminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin policy write, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateAccountIssuesOTP(t *testing.T) {
	f := newRouterFixture(t)

	body := `{"full_name":"John Smith","password_expiry_days":30,"otp":"4242"}`
	rec := f.request(http.MethodPut, "/api/v1/users/acc-user", f.adminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handlers.UpdateAccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OTP != "4242" {
		t.Fatalf("expected the issued otp in the response, got %+v", resp)
	}

	stored := f.accounts.accounts["acc-user"]
	if stored.FullName != "John Smith" || stored.PasswordExpiryDays != 30 {
		t.Fatalf("profile not updated: %+v", stored)
	}
	if !stored.OTPEnabled || stored.OTPHash == nil || !stored.ResetWithOTP {
		t.Fatalf("otp not issued: %+v", stored)
	}
	if stored.PasswordHash != nil {
		t.Fatal("password hash must be cleared while the otp is live")
	}
	if !stored.MustChangePassword {
		t.Fatal("otp issuance must force a password change")
	}
}

func TestUpdateAccountWithoutOTPKeepsCredentials(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.request(http.MethodPut, "/api/v1/users/acc-user", f.adminToken, `{"full_name":"John Smith"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handlers.UpdateAccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OTP != "" {
		t.Fatalf("no otp expected, got %+v", resp)
	}

	stored := f.accounts.accounts["acc-user"]
	if stored.OTPEnabled || stored.MustChangePassword {
		t.Fatalf("credentials must be untouched: %+v", stored)
	}
}
