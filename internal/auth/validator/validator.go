// Package validator registers the auth-specific validation rules.
package validator

import (
	"strings"

	platformvalidator "fieldvisits_backend/platform/validator"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted for new credentials.
const MinPasswordLength = 6

// PasswordPolicy describes the password requirements for API error messages
const PasswordPolicy = "La contraseña debe tener al menos 6 caracteres"

// Register adds the "userrole" tag to val.
func Register(val *platformvalidator.Validator) error {
	return val.RegisterValidation("userrole", validateUserRole)
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ADMIN", "AGENT":
		return true
	}
	return false
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
