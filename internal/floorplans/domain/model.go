package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Column widths of floor_plans.
const (
	MaxNameLen = 255
	MaxPathLen = 1024
)

var (
	ErrNotFound       = errors.New("floor plan not found")
	ErrParentNotFound = errors.New("owning project not found")
	ErrInvalidInput   = errors.New("invalid floor plan input")
)

// FloorPlan is a base layout asset inside a project.
type FloorPlan struct {
	ID            int64     `json:"floor_plan_id"`
	ProjectID     int64     `json:"project_id"`
	Name          string    `json:"plan_name"`
	FilePath      string    `json:"file_path"`
	ThumbnailPath string    `json:"thumbnail_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateFloorPlanRequest struct {
	ProjectID     int64  `json:"-"`
	Name          string `json:"plan_name"`
	FilePath      string `json:"file_path"`
	ThumbnailPath string `json:"thumbnail_path"`
}

type UpdateFloorPlanRequest struct {
	Name          *string `json:"plan_name,omitempty"`
	FilePath      *string `json:"file_path,omitempty"`
	ThumbnailPath *string `json:"thumbnail_path,omitempty"`
}

func (r *CreateFloorPlanRequest) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.FilePath = strings.TrimSpace(r.FilePath)
	r.ThumbnailPath = strings.TrimSpace(r.ThumbnailPath)
	if r.ProjectID <= 0 {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: plan_name is required", ErrInvalidInput)
	}
	return checkLengths(&r.Name, &r.FilePath, &r.ThumbnailPath)
}

func (r *UpdateFloorPlanRequest) Normalize() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("%w: plan_name cannot be empty", ErrInvalidInput)
		}
		r.Name = &name
	}
	r.FilePath = trimPtr(r.FilePath)
	r.ThumbnailPath = trimPtr(r.ThumbnailPath)
	return checkLengths(r.Name, r.FilePath, r.ThumbnailPath)
}

func (r *UpdateFloorPlanRequest) Empty() bool {
	return r.Name == nil && r.FilePath == nil && r.ThumbnailPath == nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// checkLengths validates whichever fields are set against the column widths.
func checkLengths(name, filePath, thumbnailPath *string) error {
	if name != nil && utf8.RuneCountInString(*name) > MaxNameLen {
		return fmt.Errorf("%w: plan_name exceeds %d characters", ErrInvalidInput, MaxNameLen)
	}
	if filePath != nil && utf8.RuneCountInString(*filePath) > MaxPathLen {
		return fmt.Errorf("%w: file_path exceeds %d characters", ErrInvalidInput, MaxPathLen)
	}
	if thumbnailPath != nil && utf8.RuneCountInString(*thumbnailPath) > MaxPathLen {
		return fmt.Errorf("%w: thumbnail_path exceeds %d characters", ErrInvalidInput, MaxPathLen)
	}
	return nil
}
