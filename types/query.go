package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// PredictParams is the body of a predict request.
type PredictParams struct {
	Query    string `json:"query" validate:"required"`
	UserID   string `json:"user_id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`
}

// PredictResponse wraps a Prediction with request-level bookkeeping.
type PredictResponse struct {
	Prediction   Prediction `json:"prediction"`
	LatencyMs    int64      `json:"latency_ms"`
	ModelVersion string     `json:"model_version"`
	RequestID    string     `json:"request_id"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *PredictParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

// ToQuery converts validated request params into the core query value.
func (params *PredictParams) ToQuery() Query {
	return Query{
		Text:     params.Query,
		UserID:   params.UserID,
		ToolName: params.ToolName,
	}
}
