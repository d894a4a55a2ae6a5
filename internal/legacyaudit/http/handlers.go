package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/floorcraft/floorplan-backend/internal/api/http"
	"github.com/floorcraft/floorplan-backend/internal/legacyaudit/domain"
	"github.com/floorcraft/floorplan-backend/internal/legacyaudit/service"
)

type Handler struct {
	rec *service.Recorder
}

func New(rec *service.Recorder) *Handler {
	return &Handler{rec: rec}
}

// Register attaches the read-only audit routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := httpapi.Page(c)
	items, err := h.rec.List(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "audits": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpapi.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid audit id"})
		return
	}
	rec, err := h.rec.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "audit record not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "audit": rec})
}
