package llm

import "time"

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// GenerateResponse is the non-streaming reply of /api/generate. Response is a
// pointer so a body without the field can be told apart from an empty answer.
type GenerateResponse struct {
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`
	Response      *string   `json:"response"`
	Done          bool      `json:"done"`
	TotalDuration int64     `json:"total_duration,omitempty"`
}

// ModelInfo describes one locally available model from /api/tags
type ModelInfo struct {
	Name       string       `json:"name"`
	Model      string       `json:"model"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

type ModelDetails struct {
	Format            string `json:"format"`
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

type listResponse struct {
	Models []ModelInfo `json:"models"`
}
