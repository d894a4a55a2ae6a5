package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidInput = errors.New("invalid user input")
)

// Column widths of users.
const (
	MaxNameLen  = 100
	MaxEmailLen = 255
)

const (
	RoleAdmin    = "admin"
	RoleDesigner = "designer"
	RoleCustomer = "customer"
)

// User is an account that owns projects.
type User struct {
	ID        int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateUserRequest carries a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// Normalize trims fields, lower-cases the email, applies the default role and validates.
func (r *CreateUserRequest) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = RoleCustomer
	}

	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateName(r.Name); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validateRole(r.Role)
}

func (r *UpdateUserRequest) Normalize() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		if err := validateName(name); err != nil {
			return err
		}
		r.Name = &name
	}
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		if err := validateEmail(email); err != nil {
			return err
		}
		r.Email = &email
	}
	if r.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*r.Role))
		if err := validateRole(role); err != nil {
			return err
		}
		r.Role = &role
	}
	return nil
}

// Empty reports whether the update would change nothing.
func (r *UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Role == nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxNameLen)
	}
	return nil
}

func validateEmail(email string) error {
	if utf8.RuneCountInString(email) > MaxEmailLen {
		return fmt.Errorf("%w: email exceeds %d characters", ErrInvalidInput, MaxEmailLen)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return nil
}

func validateRole(role string) error {
	switch role {
	case RoleAdmin, RoleDesigner, RoleCustomer:
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
}
