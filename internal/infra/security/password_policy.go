package security

import (
	"fmt"
	"strings"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

// specialCharacters is the fixed set satisfying the special-character rule.
const specialCharacters = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword checks the candidate against every rule of the policy and
// returns all violations in rule order. An empty result means the candidate
// is accepted.
func ValidatePassword(candidate string, policy domain.PasswordPolicy) []string {
	var violations []string

	if len([]rune(candidate)) < policy.MinLength {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters long", policy.MinLength))
	}

	if policy.RequireCapitalLetter && !containsCapital(candidate) {
		violations = append(violations, "password must contain at least one capital letter")
	}

	if policy.RequireSpecialChar && !strings.ContainsAny(candidate, specialCharacters) {
		violations = append(violations, "password must contain at least one special character")
	}

	if policy.RequireDigits > 0 {
		if digits := countDigits(candidate); digits < policy.RequireDigits {
			violations = append(violations, fmt.Sprintf("password must contain at least %d digit(s)", policy.RequireDigits))
		}
	}

	return violations
}

func containsCapital(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

// StrengthScore returns an advisory zxcvbn score in the range 0-4. It never
// gates acceptance; the policy rules above are the only gate.
func StrengthScore(candidate string, userInputs ...string) int {
	if candidate == "" {
		return 0
	}

	result := zxcvbn.PasswordStrength(candidate, userInputs)
	if result.Score < 0 {
		return 0
	}
	if result.Score > 4 {
		return 4
	}
	return result.Score
}
