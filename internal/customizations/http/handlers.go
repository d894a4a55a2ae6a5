package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/floorcraft/floorplan-backend/internal/api/http"
	"github.com/floorcraft/floorplan-backend/internal/customizations/domain"
)

func (h *Handler) create(c *gin.Context) {
	floorPlanID, ok := httpapi.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid floor plan id"})
		return
	}

	var req domain.CreateCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	req.FloorPlanID = floorPlanID

	cz, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "customization": cz})
}

func (h *Handler) list(c *gin.Context) {
	floorPlanID, ok := httpapi.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid floor plan id"})
		return
	}
	limit, offset := httpapi.Page(c)

	items, err := h.svc.List(c.Request.Context(), floorPlanID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "customizations": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpapi.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid customization id"})
		return
	}
	cz, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "customization": cz})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpapi.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid customization id"})
		return
	}
	var req domain.UpdateCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	cz, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "customization": cz})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := httpapi.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid customization id"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "customization not found"})
	case errors.Is(err, domain.ErrParentNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
