package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBCryptCost = 12

	MinPasswordLength = 12
	// bcrypt ignores everything past 72 bytes
	MaxPasswordLength = 72
)

var (
	ErrPasswordValidation  = errors.New("password validation failed")
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong     = fmt.Errorf("password must not exceed %d bytes", MaxPasswordLength)
	ErrPasswordNoUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber    = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial   = errors.New("password must contain at least one special character")
)

// passwordRules run in order; the first failing rule is reported
var passwordRules = []struct {
	err error
	ok  func(string) bool
}{
	{ErrPasswordEmpty, func(p string) bool { return p != "" }},
	{ErrPasswordTooShort, func(p string) bool { return utf8.RuneCountInString(p) >= MinPasswordLength }},
	{ErrPasswordTooLong, func(p string) bool { return len(p) <= MaxPasswordLength }},
	{ErrPasswordNoUppercase, containsRune(unicode.IsUpper)},
	{ErrPasswordNoLowercase, containsRune(unicode.IsLower)},
	{ErrPasswordNoNumber, containsRune(unicode.IsDigit)},
	{ErrPasswordNoSpecial, containsRune(func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})},
}

func containsRune(class func(rune) bool) func(string) bool {
	return func(p string) bool {
		return strings.IndexFunc(p, class) >= 0
	}
}

// PasswordService hashes dashboard user passwords with bcrypt
type PasswordService struct {
	cost int
}

// NewPasswordService creates a password service hashing with the given bcrypt
// cost. Costs outside bcrypt's range fall back to DefaultBCryptCost.
func NewPasswordService(cost int) PasswordServiceInterface {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBCryptCost
	}
	return &PasswordService{cost: cost}
}

// ValidatePassword enforces the password policy
func (ps *PasswordService) ValidatePassword(password string) error {
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			return rule.err
		}
	}
	return nil
}

// HashPassword validates and hashes a password. Policy failures wrap both
// ErrPasswordValidation and the failing rule.
func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPasswordValidation, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// ComparePassword reports whether password matches the bcrypt hash
func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
