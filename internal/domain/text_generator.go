package domain

import "context"

// TextGenerator defines the capability to send prompts to an LLM and receive
// textual responses. Complete returns free-form text; CompleteJSON asks the
// model for a JSON object and returns the raw (possibly malformed) payload,
// leaving repair and decoding to the caller.
type TextGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
	Version() string
}
