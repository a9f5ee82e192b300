package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"committrack/internal/service/goals"
	"committrack/internal/store"
)

type GoalHandler struct {
	svc    *goals.Service
	logger *zap.Logger
}

func NewGoalHandler(svc *goals.Service, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{svc: svc, logger: logger}
}

func (h *GoalHandler) respondError(c *gin.Context, err error) {
	var verr *goals.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Create handles POST /goals.
func (h *GoalHandler) Create(c *gin.Context) {
	var in goals.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	g, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// List handles GET /goals.
func (h *GoalHandler) List(c *gin.Context) {
	gs, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": gs})
}

// Get handles GET /goals/:id.
func (h *GoalHandler) Get(c *gin.Context) {
	g, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Update handles PUT /goals/:id.
func (h *GoalHandler) Update(c *gin.Context) {
	var in goals.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	g, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Delete handles DELETE /goals/:id.
func (h *GoalHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListByUser handles GET /users/:id/goals.
func (h *GoalHandler) ListByUser(c *gin.Context) {
	gs, err := h.svc.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": gs})
}
