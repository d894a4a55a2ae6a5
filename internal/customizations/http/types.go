package http

import "github.com/floorcraft/floorplan-backend/internal/customizations/service"

type Handler struct {
	svc *service.CustomizationService
}

func New(svc *service.CustomizationService) *Handler {
	return &Handler{svc: svc}
}
