package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/internal/auth"
	"github.com/floorcraft/floorplan-backend/internal/logging"
	"github.com/floorcraft/floorplan-backend/internal/pipeline"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// MaxBatchSize caps the events accepted by one batch request.
const MaxBatchSize = 500

// EventLookup reads the processed-events ledger.
type EventLookup interface {
	Get(ctx context.Context, eventID string) (*pipeline.EventStatus, error)
}

// Handler serves the ingest endpoints and pipeline introspection.
type Handler struct {
	relay  *pipeline.Relay
	events EventLookup
	stats  *pipeline.Stats
	log    *zap.Logger
}

func New(relay *pipeline.Relay, events EventLookup, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{relay: relay, events: events, stats: relay.Stats(), log: log}
}

// Register attaches the routes. ingestMW (auth, rate limiting) guards only
// the ingest endpoints.
func (h *Handler) Register(rg *gin.RouterGroup, ingestMW ...gin.HandlerFunc) {
	ing := rg.Group("/ingest", ingestMW...)
	ing.POST("/customizations", h.ingest)
	ing.POST("/customizations/batch", h.ingestBatch)

	rg.GET("/events/:id", h.event)
	rg.GET("/pipeline/stats", h.statsSnapshot)
}

type ingestRequest struct {
	Kind string `json:"kind"`
	pipeline.Mutation
}

func (r *ingestRequest) prepare() (queue.Kind, error) {
	kind := queue.Kind(strings.TrimSpace(r.Kind))
	if kind == "" {
		kind = queue.KindCreate
	}
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q", r.Kind)
	}
	if err := r.Mutation.Validate(kind); err != nil {
		return "", err
	}
	return kind, nil
}

func (h *Handler) ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	kind, err := req.prepare()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	env, err := h.relay.Publish(c.Request.Context(), kind, pipeline.Origin{Source: queue.SourceAPI}, req.Mutation)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "queue unavailable"})
		return
	}

	logging.FromContext(c.Request.Context(), h.log).Info("customization event accepted",
		zap.String("event_id", env.ID),
		zap.String("kind", string(kind)),
		zap.String("submitted_by", auth.UserFirebaseUID(c)),
	)
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "event_id": env.ID})
}

type batchRequest struct {
	Events []ingestRequest `json:"events"`
}

// ingestBatch validates every event before publishing any of them.
func (h *Handler) ingestBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "events is empty"})
		return
	}
	if len(req.Events) > MaxBatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": fmt.Sprintf("at most %d events per batch", MaxBatchSize)})
		return
	}

	kinds := make([]queue.Kind, len(req.Events))
	for i := range req.Events {
		kind, err := req.Events[i].prepare()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": fmt.Sprintf("events[%d]: %v", i, err)})
			return
		}
		kinds[i] = kind
	}

	ids := make([]string, 0, len(req.Events))
	for i := range req.Events {
		env, err := h.relay.Publish(c.Request.Context(), kinds[i], pipeline.Origin{Source: queue.SourceAPI}, req.Events[i].Mutation)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "queue unavailable", "event_ids": ids})
			return
		}
		ids = append(ids, env.ID)
	}

	logging.FromContext(c.Request.Context(), h.log).Info("customization batch accepted",
		zap.Int("events", len(ids)), zap.String("submitted_by", auth.UserFirebaseUID(c)))
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "event_ids": ids})
}

func (h *Handler) event(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid event id"})
		return
	}

	st, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pipeline.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "event": st})
}

func (h *Handler) statsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": h.stats.Snapshot()})
}
