package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"everpedia/internal/domain"
)

// pendingPromptGrace is how long a generating-state record is trusted to
// still be in the worker's hands. Past it, the job is assumed lost and the
// record is promoted with the deterministic fallback prompt.
const pendingPromptGrace = 3 * time.Minute

// FetchImageInput identifies one image request: the slug and extension from
// the URL path plus the requested aspect ratio.
type FetchImageInput struct {
	Slug   string
	Ext    string
	Aspect string
}

// FetchImageOutput carries the image bytes and the content type to serve
// them under.
type FetchImageOutput struct {
	Data        []byte
	ContentType string
	FromCache   bool
}

// FetchImageUsecase serves phase B of the image pipeline: cached bytes when
// fresh, otherwise generation from the stored prompt. A missing prompt
// record is domain.ErrPromptMissing; a not-yet-ready one is
// domain.ErrPromptPending.
type FetchImageUsecase interface {
	Execute(ctx context.Context, input FetchImageInput) (*FetchImageOutput, error)
}

type fetchImageUsecase struct {
	cache     domain.PageCache
	prompts   domain.PromptStore
	generator domain.ImageGenerator
	imageTTL  time.Duration
	logger    *slog.Logger
}

func NewFetchImageUsecase(
	cache domain.PageCache,
	prompts domain.PromptStore,
	generator domain.ImageGenerator,
	imageTTL time.Duration,
	logger *slog.Logger,
) FetchImageUsecase {
	return &fetchImageUsecase{
		cache:     cache,
		prompts:   prompts,
		generator: generator,
		imageTTL:  imageTTL,
		logger:    logger,
	}
}

func (u *fetchImageUsecase) Execute(ctx context.Context, input FetchImageInput) (*FetchImageOutput, error) {
	key := input.Slug + "." + input.Ext
	if u.cache.IsCached(key, u.imageTTL, true) {
		if data, meta, ok := u.cache.GetBinary(key); ok {
			return &FetchImageOutput{
				Data:        data,
				ContentType: contentTypeFor(meta["format"], input.Ext),
				FromCache:   true,
			}, nil
		}
	}

	rec, ok := u.prompts.Get(input.Slug)
	if !ok {
		return nil, domain.ErrPromptMissing
	}
	if !rec.Ready {
		if time.Since(rec.UpdatedAt) < pendingPromptGrace {
			return nil, domain.ErrPromptPending
		}
		// The worker never delivered: the job was lost to a restart or a
		// full queue after the record was persisted. Promote the record with
		// the deterministic prompt instead of keeping clients polling.
		rec.Prompt = fallbackPrompt(rec.ArticleTitle, domain.ImageReference{Slug: input.Slug})
		if err := u.prompts.MarkReady(input.Slug, rec.Prompt); err != nil {
			u.logger.Warn("failed to promote stale prompt record", "image", input.Slug, "error", err)
		}
		u.logger.Info("stale pending prompt promoted to fallback", slog.String("image", input.Slug))
	}

	img, err := u.generator.Generate(ctx, rec.Prompt, input.Aspect)
	if err != nil {
		return nil, fmt.Errorf("image generation failed for %s: %w", input.Slug, err)
	}

	meta := map[string]string{
		"filename":     key,
		"title":        rec.ArticleTitle,
		"format":       img.Format,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := u.cache.SetBinary(key, img.Data, meta); err != nil {
		u.logger.Warn("failed to cache generated image", "image", key, "error", err)
	}

	u.logger.Info("image generated",
		slog.String("image", key),
		slog.String("aspect", input.Aspect),
		slog.Int("bytes", len(img.Data)))

	return &FetchImageOutput{
		Data:        img.Data,
		ContentType: contentTypeFor(img.Format, input.Ext),
	}, nil
}

func contentTypeFor(format, ext string) string {
	if format == "" {
		format = ext
	}
	switch strings.ToLower(format) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
