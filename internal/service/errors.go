package service

import (
	"encoding/json"
	"errors"
)

var (
	// ErrInvalidCredentials is returned on any authentication mismatch.
	// It deliberately does not say whether the username or the password
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid is returned for malformed, unsigned or expired
	// identity tokens.
	ErrTokenInvalid = errors.New("invalid token")
)

// ValidationError reports per-field input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	data, err := json.Marshal(e.Fields)
	if err != nil {
		return "validation failed"
	}
	return string(data)
}

// validator accumulates field errors, keeping the first message per field.
type validator struct {
	fields map[string]string
}

func newValidator() *validator {
	return &validator{fields: make(map[string]string)}
}

func (v *validator) check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.fields[key]; !ok {
		v.fields[key] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
