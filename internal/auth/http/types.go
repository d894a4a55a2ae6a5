package http

import "github.com/floorcraft/floorplan-backend/internal/users/service"

// Handler bundles the dependencies for auth HTTP endpoints.
type Handler struct {
	users *service.UserService
}

func New(users *service.UserService) *Handler {
	return &Handler{users: users}
}
