package usecase

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/infra/security"
)

func TestMain(m *testing.M) {
	// Light hashing parameters keep the suite fast without touching the
	// production defaults.
	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type authFixture struct {
	accounts *stubAccountRepo
	settings *stubSettingsRepo
	audit    *stubAuditRepo
	events   *stubPublisher
	tokens   *security.TokenManager
	clock    *fakeClock
	auth     *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	accounts := newStubAccountRepo()
	settings := &stubSettingsRepo{system: &domain.SystemSettings{FailedLoginLimit: 3, IdleTimeoutMinutes: 15}}
	auditRepo := &stubAuditRepo{}
	events := &stubPublisher{}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	tokens, err := security.NewTokenManager("unit-test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	tokens.WithClock(clock.Now)

	logger := zaptest.NewLogger(t)

	recorder := NewAuditRecorder(auditRepo, logger)
	recorder.WithClock(clock.Now)

	auth := NewAuthService(accounts, settings, tokens,
		NewLockoutPolicy(accounts, 15*time.Minute), recorder, events, logger)
	auth.WithClock(clock.Now)

	return &authFixture{
		accounts: accounts,
		settings: settings,
		audit:    auditRepo,
		events:   events,
		tokens:   tokens,
		clock:    clock,
		auth:     auth,
	}
}

func (f *authFixture) seedPasswordAccount(t *testing.T, username, password string) domain.Account {
	t.Helper()

	hash, err := security.HashCredential(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	account := domain.Account{
		ID:                 "acc-" + username,
		Username:           username,
		PasswordHash:       &hash,
		CreatedAt:          f.clock.Now(),
		LastPasswordChange: f.clock.Now(),
	}
	f.accounts.put(account)
	return account
}

func (f *authFixture) seedOTPAccount(t *testing.T, username, otp string) domain.Account {
	t.Helper()

	hash, err := security.HashCredential(otp)
	if err != nil {
		t.Fatalf("hash otp: %v", err)
	}

	account := domain.Account{
		ID:                 "acc-" + username,
		Username:           username,
		OTPEnabled:         true,
		OTPHash:            &hash,
		ResetWithOTP:       true,
		CreatedAt:          f.clock.Now(),
		LastPasswordChange: f.clock.Now(),
	}
	f.accounts.put(account)
	return account
}

func TestLoginWithPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedPasswordAccount(t, "alice", "Sensible1!")

	result, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!", IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.OTPRequired {
		t.Fatal("no OTP challenge expected")
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}
	if result.MustChangePassword || result.PasswordExpired {
		t.Fatalf("unexpected password flags: %+v", result)
	}

	account, _, err := f.auth.VerifySession(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("verify session: %v", err)
	}
	if account.Username != "alice" {
		t.Fatalf("unexpected account %q", account.Username)
	}

	if actions := f.audit.actions(); len(actions) != 1 || actions[0] != domain.AuditLoginSuccess {
		t.Fatalf("unexpected audit trail: %v", actions)
	}
}

func TestLoginUnknownUserIsGeneric(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), LoginInput{Username: "ghost", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if actions := f.audit.actions(); len(actions) != 1 || actions[0] != domain.AuditLoginFailed {
		t.Fatalf("unexpected audit trail: %v", actions)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seedPasswordAccount(t, "alice", "Sensible1!")
	account.IsBlocked = true
	f.accounts.put(account)

	_, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"})
	if !errors.Is(err, ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
}

func TestLoginLockoutAfterLimit(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seedPasswordAccount(t, "alice", "Sensible1!")

	for i := 0; i < 2; i++ {
		if _, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// The third failure reaches the limit of 3 and locks the account.
	if _, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"}); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked at the limit, got %v", err)
	}

	stored := f.accounts.snapshot(account.ID)
	if stored.FailedAttempts != 3 || stored.LastLockout == nil {
		t.Fatalf("lockout not recorded: %+v", stored)
	}

	// Even the correct password is rejected during the cool-down.
	if _, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"}); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked during cool-down, got %v", err)
	}

	f.clock.Advance(16 * time.Minute)

	result, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"})
	if err != nil {
		t.Fatalf("login after cool-down: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a session token after cool-down")
	}

	stored = f.accounts.snapshot(account.ID)
	if stored.FailedAttempts != 0 || stored.LastLockout != nil {
		t.Fatalf("counter not reset after cool-down: %+v", stored)
	}

	found := false
	for _, event := range f.events.types() {
		if event == "account_locked" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an account_locked event")
	}
}

func TestLoginOTPChallengeAndSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seedOTPAccount(t, "bob", "7331")

	// No answer yet: challenge, no failure recorded.
	result, err := f.auth.Login(context.Background(), LoginInput{Username: "bob"})
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if !result.OTPRequired {
		t.Fatal("expected an OTP challenge")
	}

	// Wrong answer counts as a failure.
	if _, err := f.auth.Login(context.Background(), LoginInput{Username: "bob", OTPAnswer: "0000"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong otp, got %v", err)
	}
	if stored := f.accounts.snapshot(account.ID); stored.FailedAttempts != 1 {
		t.Fatalf("expected one failed attempt, got %d", stored.FailedAttempts)
	}

	// Correct answer consumes the OTP and forces a password change.
	result, err = f.auth.Login(context.Background(), LoginInput{Username: "bob", OTPAnswer: "7331"})
	if err != nil {
		t.Fatalf("otp login: %v", err)
	}
	if !result.ViaOTP || !result.MustChangePassword {
		t.Fatalf("unexpected otp result: %+v", result)
	}

	stored := f.accounts.snapshot(account.ID)
	if stored.OTPEnabled || stored.OTPHash != nil {
		t.Fatalf("otp not consumed: %+v", stored)
	}
	if !stored.ResetWithOTP {
		t.Fatal("reset_with_otp must survive until the forced password change")
	}
	if stored.FailedAttempts != 0 {
		t.Fatalf("failure counter not reset, got %d", stored.FailedAttempts)
	}

	// The same answer cannot authenticate a second time.
	if _, err := f.auth.Login(context.Background(), LoginInput{Username: "bob", OTPAnswer: "7331"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected second otp use to fail, got %v", err)
	}
}

func TestLoginReportsExpiredPassword(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seedPasswordAccount(t, "alice", "Sensible1!")
	account.PasswordExpiryDays = 1
	account.LastPasswordChange = f.clock.Now().Add(-72 * time.Hour)
	f.accounts.put(account)

	result, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !result.PasswordExpired {
		t.Fatal("expected the password to be reported expired")
	}
}

func TestVerifySessionLiveChecks(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seedPasswordAccount(t, "alice", "Sensible1!")

	result, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, _, err := f.auth.VerifySession(context.Background(), result.Token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Blocking invalidates an otherwise valid token.
	blocked := f.accounts.snapshot(account.ID)
	blocked.IsBlocked = true
	f.accounts.put(blocked)
	if _, _, err := f.auth.VerifySession(context.Background(), result.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for blocked account, got %v", err)
	}

	// Deleting does too.
	if err := f.accounts.Delete(context.Background(), account.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := f.auth.VerifySession(context.Background(), result.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for deleted account, got %v", err)
	}

	// Expiry surfaces as its own error.
	f.seedPasswordAccount(t, "carol", "Sensible1!")
	result, err = f.auth.Login(context.Background(), LoginInput{Username: "carol", Password: "Sensible1!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	f.clock.Advance(16 * time.Minute)
	if _, _, err := f.auth.VerifySession(context.Background(), result.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestLogoutWritesAudit(t *testing.T) {
	f := newAuthFixture(t)
	f.seedPasswordAccount(t, "alice", "Sensible1!")

	result, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	f.auth.Logout(context.Background(), result.Token, "10.0.0.1")

	actions := f.audit.actions()
	if len(actions) != 2 || actions[1] != domain.AuditLogout {
		t.Fatalf("unexpected audit trail: %v", actions)
	}
}

func TestAuditFailuresAreSwallowed(t *testing.T) {
	f := newAuthFixture(t)
	f.seedPasswordAccount(t, "alice", "Sensible1!")
	f.audit.fail = errors.New("audit store down")

	if _, err := f.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Sensible1!"}); err != nil {
		t.Fatalf("login must not fail on audit errors: %v", err)
	}
}
