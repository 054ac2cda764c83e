package llmapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"everpedia/internal/domain"
)

// OpenAIText implements domain.TextGenerator on the official openai-go SDK
// (chat completions).
type OpenAIText struct {
	Model string
	Opts  []option.RequestOption
}

// NewOpenAIText constructs the adapter. baseURL may be empty for the public
// API; httpClient should come from the shared pool.
func NewOpenAIText(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIText {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIText{Model: model, Opts: opts}
}

// Complete sends the prompt and returns the assistant message verbatim.
func (o *OpenAIText) Complete(ctx context.Context, system, prompt string) (string, error) {
	return o.complete(ctx, system, prompt, false)
}

// CompleteJSON asks the model for a JSON object. The raw payload is returned
// untouched; callers own repair and decoding.
func (o *OpenAIText) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	return o.complete(ctx, system, prompt, true)
}

func (o *OpenAIText) complete(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	client := openai.NewClient(o.Opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Version returns the wrapped model name.
func (o *OpenAIText) Version() string {
	return o.Model
}

var _ domain.TextGenerator = (*OpenAIText)(nil)
