package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
	// JSONOutput constrains the backend to emit a single JSON object.
	// The matcher relies on this for every oracle call.
	JSONOutput bool `json:"json_output"`
}

// LLMClient defines the standard interface for any LLM backend.
// The matching engine only ever needs single-shot completion.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
