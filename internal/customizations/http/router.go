package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(floorplans, customizations *gin.RouterGroup) {
	floorplans.POST("/:id/customizations", h.create)
	floorplans.GET("/:id/customizations", h.list)

	customizations.GET("/:id", h.get)
	customizations.PATCH("/:id", h.update)
	customizations.DELETE("/:id", h.delete)
}
