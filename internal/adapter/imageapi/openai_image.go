package imageapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"everpedia/internal/domain"
)

// maxImageBytes bounds the download of a generated image.
const maxImageBytes = 20 << 20

// OpenAIImage implements domain.ImageGenerator on the Images API. Calls are
// rate limited because image generation is the most quota-expensive
// collaborator, and a single hot page can reference many figures.
type OpenAIImage struct {
	model    string
	opts     []option.RequestOption
	download *http.Client
	limiter  *rate.Limiter
}

// NewOpenAIImage constructs the adapter. download fetches the provider's
// result URL; perMinute bounds generation calls across all requests.
func NewOpenAIImage(apiKey, baseURL, model string, download *http.Client, perMinute int) *OpenAIImage {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if download != nil {
		opts = append(opts, option.WithHTTPClient(download))
	}
	if perMinute <= 0 {
		perMinute = 10
	}
	return &OpenAIImage{
		model:    model,
		opts:     opts,
		download: download,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

// Generate produces image bytes for the prompt at the requested aspect ratio.
// The provider hands back either a URL or an inline base64 payload; both are
// resolved to raw bytes here.
func (g *OpenAIImage) Generate(ctx context.Context, prompt, aspect string) (*domain.GeneratedImage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("image rate limit wait: %w", err)
	}

	client := openai.NewClient(g.opts...)
	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(g.model),
		Size:   sizeForAspect(aspect),
		N:      openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no data")
	}

	img := resp.Data[0]
	if img.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode inline image payload: %w", err)
		}
		return &domain.GeneratedImage{Data: data, Format: "png"}, nil
	}
	if img.URL == "" {
		return nil, fmt.Errorf("image generation returned neither url nor payload")
	}

	data, err := g.fetch(ctx, img.URL)
	if err != nil {
		return nil, err
	}
	return &domain.GeneratedImage{Data: data, Format: "png"}, nil
}

// Version returns the wrapped model name.
func (g *OpenAIImage) Version() string {
	return g.model
}

func (g *OpenAIImage) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image download request: %w", err)
	}
	client := g.download
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read generated image: %w", err)
	}
	return data, nil
}

// sizeForAspect maps the requested aspect ratio onto the nearest size the
// provider supports. Unknown ratios fall back to landscape 4:3 territory.
func sizeForAspect(aspect string) openai.ImageGenerateParamsSize {
	switch aspect {
	case "1:1":
		return openai.ImageGenerateParamsSize1024x1024
	case "9:16", "3:4", "2:3":
		return openai.ImageGenerateParamsSize1024x1792
	default: // "4:3", "16:9", "3:2" and anything unrecognized
		return openai.ImageGenerateParamsSize1792x1024
	}
}

var _ domain.ImageGenerator = (*OpenAIImage)(nil)
