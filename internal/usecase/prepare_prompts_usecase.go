package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"everpedia/internal/domain"
)

// PreparePromptsUsecase turns discovered image references into ready image
// prompts: one batched model call produces a short prompt per image, and any
// image the batch missed (or the whole batch, on failure) gets a
// deterministic prompt derived from its caption. Prompt preparation never
// fails permanently for a referenced image.
type PreparePromptsUsecase interface {
	Execute(ctx context.Context, articleTitle string, refs []domain.ImageReference) error
	Fallback(articleTitle string, refs []domain.ImageReference) error
}

type preparePromptsUsecase struct {
	generator domain.TextGenerator
	prompts   domain.PromptStore
	logger    *slog.Logger
}

func NewPreparePromptsUsecase(generator domain.TextGenerator, prompts domain.PromptStore, logger *slog.Logger) PreparePromptsUsecase {
	return &preparePromptsUsecase{generator: generator, prompts: prompts, logger: logger}
}

func (u *preparePromptsUsecase) Execute(ctx context.Context, articleTitle string, refs []domain.ImageReference) error {
	if len(refs) == 0 {
		return nil
	}

	generated := u.fetchBatch(ctx, articleTitle, refs)

	var firstErr error
	for _, ref := range refs {
		prompt, ok := generated[ref.Slug]
		if !ok || strings.TrimSpace(prompt) == "" {
			prompt = fallbackPrompt(articleTitle, ref)
		}
		if err := u.prompts.MarkReady(ref.Slug, prompt); err != nil {
			u.logger.Error("failed to persist image prompt", "image", ref.Slug, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to persist prompt for %s: %w", ref.Slug, err)
			}
		}
	}
	return firstErr
}

// Fallback marks every reference ready with its deterministic prompt, without
// a model call. It covers the paths where the batch never runs at all (full
// worker queue, shutdown with queued jobs): a referenced image must not stay
// pending forever.
func (u *preparePromptsUsecase) Fallback(articleTitle string, refs []domain.ImageReference) error {
	var firstErr error
	for _, ref := range refs {
		if err := u.prompts.MarkReady(ref.Slug, fallbackPrompt(articleTitle, ref)); err != nil {
			u.logger.Error("failed to persist fallback prompt", "image", ref.Slug, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to persist prompt for %s: %w", ref.Slug, err)
			}
		}
	}
	return firstErr
}

// fetchBatch asks the model for one prompt per image. Failures degrade to an
// empty map so every image falls back to its synthetic prompt.
func (u *preparePromptsUsecase) fetchBatch(ctx context.Context, articleTitle string, refs []domain.ImageReference) map[string]string {
	raw, err := u.generator.CompleteJSON(ctx, curatorSystem, imagePromptsPrompt(articleTitle, refs))
	if err != nil {
		u.logger.Warn("image prompt batch failed, using fallbacks", "article", articleTitle, "error", err)
		return nil
	}
	var list imagePromptList
	if err := decodeWithRepair(raw, &list); err != nil {
		u.logger.Warn("image prompt batch malformed, using fallbacks", "article", articleTitle, "error", err)
		return nil
	}
	out := make(map[string]string, len(list.Prompts))
	for _, p := range list.Prompts {
		out[p.Slug] = p.Prompt
	}
	return out
}

// fallbackPrompt derives a usable prompt from the caption and article
// context alone.
func fallbackPrompt(articleTitle string, ref domain.ImageReference) string {
	caption := strings.TrimSpace(ref.Caption)
	if caption == "" {
		caption = domain.SlugToTitle(ref.Slug)
	}
	return fmt.Sprintf("An encyclopedia illustration of %s, related to %s. Clean, realistic, neutral style.",
		caption, articleTitle)
}
