package http

import "github.com/floorcraft/floorplan-backend/internal/floorplans/service"

type Handler struct {
	svc *service.FloorPlanService
}

func New(svc *service.FloorPlanService) *Handler {
	return &Handler{svc: svc}
}
