package http

import "github.com/floorcraft/floorplan-backend/internal/users/service"

// Handler bundles the dependencies for user HTTP endpoints.
type Handler struct {
	svc *service.UserService
}

func New(svc *service.UserService) *Handler {
	return &Handler{svc: svc}
}
