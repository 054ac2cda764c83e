package domain

import "context"

// GeneratedImage is the resolved output of one image generation call: raw
// bytes plus the format they are encoded in.
type GeneratedImage struct {
	Data   []byte
	Format string
}

// ImageGenerator defines the capability to turn a prompt and an aspect ratio
// into image bytes. Implementations resolve whatever handle the provider
// returns (URL or inline payload) before handing the image back.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, aspect string) (*GeneratedImage, error)
	Version() string
}
