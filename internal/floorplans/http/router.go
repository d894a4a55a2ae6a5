package http

import "github.com/gin-gonic/gin"

// Register attaches floor plan routes under their parent project and by id.
func (h *Handler) Register(projects, floorplans *gin.RouterGroup) {
	projects.POST("/:id/floorplans", h.create)
	projects.GET("/:id/floorplans", h.list)

	floorplans.GET("/:id", h.get)
	floorplans.PATCH("/:id", h.update)
	floorplans.DELETE("/:id", h.delete)
}
