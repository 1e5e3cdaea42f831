package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// stubAccountRepo is an in-memory port.AccountRepository.
type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	history  map[string][]domain.PasswordHistoryEntry
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{
		accounts: make(map[string]*domain.Account),
		history:  make(map[string][]domain.PasswordHistoryEntry),
	}
}

func (r *stubAccountRepo) put(account domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := account
	r.accounts[account.ID] = &copied
}

func (r *stubAccountRepo) snapshot(id string) domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.accounts[id]
}

func (r *stubAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return repository.ErrConflict
		}
	}
	copied := account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *stubAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *stubAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []domain.Account
	for _, account := range r.accounts {
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func (r *stubAccountRepo) UpdateProfile(_ context.Context, id, fullName string, expiryDays int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FullName = fullName
	account.PasswordExpiryDays = expiryDays
	return nil
}

func (r *stubAccountRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.IsBlocked = blocked
	return nil
}

func (r *stubAccountRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	delete(r.history, id)
	return nil
}

func (r *stubAccountRepo) RecordFailure(_ context.Context, id string, at time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *stubAccountRepo) ResetLockout(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FailedAttempts = 0
	account.LastFailedAttempt = nil
	account.LastLockout = nil
	return nil
}

func (r *stubAccountRepo) UpdateCredentials(_ context.Context, id string, update domain.CredentialUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	account.FailedAttempts = 0
	account.LastFailedAttempt = nil
	account.LastLockout = nil
	if update.RetiredHash != "" {
		r.history[id] = append(r.history[id], domain.PasswordHistoryEntry{
			AccountID:    id,
			PasswordHash: update.RetiredHash,
			RetiredAt:    update.ChangedAt,
		})
	}
	return nil
}

func (r *stubAccountRepo) ConsumeOTP(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.OTPEnabled = false
	account.OTPHash = nil
	account.MustChangePassword = true
	account.FailedAttempts = 0
	account.LastFailedAttempt = nil
	account.LastLockout = nil
	account.LastPasswordChange = at
	return nil
}

func (r *stubAccountRepo) ListPasswordHistory(_ context.Context, accountID string) ([]domain.PasswordHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PasswordHistoryEntry(nil), r.history[accountID]...), nil
}

// stubSettingsRepo serves fixed settings, or ErrNotFound when unset.
type stubSettingsRepo struct {
	policy *domain.PasswordPolicy
	system *domain.SystemSettings
}

func (r *stubSettingsRepo) GetPasswordPolicy(context.Context) (*domain.PasswordPolicy, error) {
	if r.policy == nil {
		return nil, repository.ErrNotFound
	}
	copied := *r.policy
	return &copied, nil
}

func (r *stubSettingsRepo) SavePasswordPolicy(_ context.Context, policy domain.PasswordPolicy) error {
	r.policy = &policy
	return nil
}

func (r *stubSettingsRepo) GetSystemSettings(context.Context) (*domain.SystemSettings, error) {
	if r.system == nil {
		return nil, repository.ErrNotFound
	}
	copied := *r.system
	return &copied, nil
}

func (r *stubSettingsRepo) SaveSystemSettings(_ context.Context, settings domain.SystemSettings) error {
	r.system = &settings
	return nil
}

// stubAuditRepo records appended entries in order.
type stubAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	fail    error
}

func (r *stubAuditRepo) Append(_ context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) List(context.Context) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reversed := make([]domain.AuditEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		reversed = append(reversed, r.entries[i])
	}
	return reversed, nil
}

func (r *stubAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []string
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// stubPublisher records published event types.
type stubPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *stubPublisher) record(eventType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *stubPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *stubPublisher) PublishLoginSucceeded(context.Context, domain.LoginSucceededEvent) error {
	p.record("login_succeeded")
	return nil
}

func (p *stubPublisher) PublishLoginFailed(context.Context, domain.LoginFailedEvent) error {
	p.record("login_failed")
	return nil
}

func (p *stubPublisher) PublishAccountLocked(context.Context, domain.AccountLockedEvent) error {
	p.record("account_locked")
	return nil
}

func (p *stubPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	p.record("password_changed")
	return nil
}

func (p *stubPublisher) PublishCredentialReset(context.Context, domain.CredentialResetEvent) error {
	p.record("credential_reset")
	return nil
}

func (p *stubPublisher) PublishAccountLifecycle(context.Context, domain.AccountLifecycleEvent) error {
	p.record("account_lifecycle")
	return nil
}
