package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxNameLen = 255

var (
	ErrNotFound       = errors.New("project not found")
	ErrParentNotFound = errors.New("owning user not found")
	ErrInvalidInput   = errors.New("invalid project input")
)

// Project groups the floor plans a user is working on.
type Project struct {
	ID          int64     `json:"project_id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"project_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateProjectRequest struct {
	UserID      int64  `json:"-"`
	Name        string `json:"project_name"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"project_name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r *CreateProjectRequest) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	if r.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: project_name is required", ErrInvalidInput)
	}
	return checkName(r.Name)
}

func (r *UpdateProjectRequest) Normalize() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("%w: project_name cannot be empty", ErrInvalidInput)
		}
		if err := checkName(name); err != nil {
			return err
		}
		r.Name = &name
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	return nil
}

func (r *UpdateProjectRequest) Empty() bool {
	return r.Name == nil && r.Description == nil
}

func checkName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("%w: project_name exceeds %d characters", ErrInvalidInput, MaxNameLen)
	}
	return nil
}
