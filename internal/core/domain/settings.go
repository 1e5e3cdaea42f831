package domain

// PasswordPolicy is the singleton set of rules every candidate password is
// validated against. Mutated only by administrators.
type PasswordPolicy struct {
	MinLength            int
	RequireCapitalLetter bool
	RequireSpecialChar   bool
	RequireDigits        int
}

// DefaultPasswordPolicy returns the policy applied before an administrator
// has persisted one.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:            8,
		RequireCapitalLetter: true,
		RequireSpecialChar:   true,
		RequireDigits:        1,
	}
}

// SystemSettings is the singleton account-security configuration.
// IdleTimeoutMinutes is advisory for clients; lockout cool-down is a separate
// configuration value (see usecase lockout handling).
type SystemSettings struct {
	FailedLoginLimit   int
	IdleTimeoutMinutes int
}

// DefaultSystemSettings returns the settings applied before an administrator
// has persisted them.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		FailedLoginLimit:   5,
		IdleTimeoutMinutes: 15,
	}
}
