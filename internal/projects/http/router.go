package http

import "github.com/gin-gonic/gin"

// Register attaches project routes. Creation and listing hang off the owning
// user, single-project operations are addressed by project id.
func (h *Handler) Register(users, projects *gin.RouterGroup) {
	users.POST("/:id/projects", h.create)
	users.GET("/:id/projects", h.list)

	projects.GET("/:id", h.get)
	projects.PATCH("/:id", h.update)
	projects.DELETE("/:id", h.delete)
}
