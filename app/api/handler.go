package api

import (
	"time"

	"datarag/rag"
	"datarag/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PredictHandler struct {
	engine       *rag.Engine
	modelVersion string
}

func NewPredictHandler(engine *rag.Engine, modelVersion string) *PredictHandler {
	return &PredictHandler{
		engine:       engine,
		modelVersion: modelVersion,
	}
}

// HandlePredict runs one query through the engine. The engine converts every
// internal failure into a Prediction, so this handler only rejects malformed
// requests; everything else is a 200 with a failure mode inside.
func (h *PredictHandler) HandlePredict(c *fiber.Ctx) error {
	var params types.PredictParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	requestID, _ := c.Locals("request_id").(string)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	start := time.Now()
	prediction := h.engine.Answer(c.UserContext(), params.ToQuery())

	return c.JSON(types.PredictResponse{
		Prediction:   prediction,
		LatencyMs:    time.Since(start).Milliseconds(),
		ModelVersion: h.modelVersion,
		RequestID:    requestID,
	})
}
