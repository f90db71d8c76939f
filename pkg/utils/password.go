package utils

import (
	"strings"
	"unicode"

	"github.com/trustelem/zxcvbn"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const (
	msgPasswordShort   = "This password is too short."
	msgPasswordNumeric = "This password is entirely numeric."
	msgPasswordCommon  = "This password is too common."
	msgPasswordSimilar = "The password is too similar to your personal information."
)

// PasswordPolicy checks length and digits locally and leaves guessability
// to zxcvbn, which knows the common-password and name dictionaries. MinScore
// is the lowest acceptable zxcvbn score (0-4).
type PasswordPolicy struct {
	MinLength int
	MinScore  int
}

func NewPasswordPolicy(cfg PasswordConfig) PasswordPolicy {
	if cfg.MinLength <= 0 {
		cfg.MinLength = 8
	}
	if cfg.MinScore <= 0 || cfg.MinScore > 4 {
		cfg.MinScore = 1
	}
	return PasswordPolicy{MinLength: cfg.MinLength, MinScore: cfg.MinScore}
}

// Validate returns the list of failed rules; empty means the password is acceptable.
// attributes are the user's own fields (username, email, names).
func (p PasswordPolicy) Validate(password string, attributes ...string) []string {
	var problems []string

	if len([]rune(password)) < p.MinLength {
		problems = append(problems, msgPasswordShort)
	}

	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, msgPasswordNumeric)
	}

	// guessability is only scored once the basic rules pass
	if len(problems) > 0 {
		return problems
	}

	inputs := userInputs(attributes)
	switch {
	case containsAttribute(password, inputs):
		problems = append(problems, msgPasswordSimilar)
	case zxcvbn.PasswordStrength(password, nil).Score < p.MinScore:
		problems = append(problems, msgPasswordCommon)
	case zxcvbn.PasswordStrength(password, inputs).Score < p.MinScore:
		problems = append(problems, msgPasswordSimilar)
	}

	return problems
}

// userInputs lowercases the attributes and adds the local part of emails
func userInputs(attributes []string) []string {
	inputs := make([]string, 0, len(attributes)*2)
	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		inputs = append(inputs, attr)
		if at := strings.IndexByte(attr, '@'); at > 0 {
			inputs = append(inputs, attr[:at])
		}
	}
	return inputs
}

func containsAttribute(password string, inputs []string) bool {
	lowered := strings.ToLower(password)
	for _, in := range inputs {
		if len(in) >= 3 && !strings.Contains(in, "@") && (strings.Contains(lowered, in) || strings.Contains(in, lowered)) {
			return true
		}
	}
	return false
}
