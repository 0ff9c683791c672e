package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// HealthStorer is the slice of the store the health check needs.
type HealthStorer interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type CheckHandler struct {
	store   HealthStorer
	version string
}

func NewCheckHandler(store HealthStorer, version string) *CheckHandler {
	return &CheckHandler{store: store, version: version}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	ctx := c.UserContext()

	dbStatus := "ok"
	vectorStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		dbStatus = "error"
		vectorStatus = "error"
	} else if count, err := h.store.Count(ctx); err != nil {
		vectorStatus = "error"
	} else if count == 0 {
		vectorStatus = "empty"
	}

	status := "ok"
	if dbStatus != "ok" {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"version": h.version,
		"checks": fiber.Map{
			"db":           dbStatus,
			"vector_store": vectorStatus,
		},
	})
}
