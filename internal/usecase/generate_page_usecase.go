package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"everpedia/internal/domain"
)

// PageResolution is the pre-generation outcome of a page request. Exactly one
// of CachedHTML, RedirectSlug, or NeedsGeneration applies; a rejected topic
// surfaces from Resolve as domain.ErrTopicRejected instead.
type PageResolution struct {
	Title           string
	CachedHTML      string
	RedirectSlug    string
	NeedsGeneration bool
}

// PromptScheduler hands discovered image references to the prompt worker.
// Scheduling must not block the page response.
type PromptScheduler interface {
	Schedule(articleTitle string, refs []domain.ImageReference)
}

// GeneratePageUsecase runs the page pipeline in two phases so the HTTP layer
// can commit its response status before generation starts: Resolve covers
// cache hit, validation, and canonical redirect; Generate runs the fan-out,
// assembly, and persistence for a slug Resolve marked as needing generation.
type GeneratePageUsecase interface {
	Resolve(ctx context.Context, slug string) (*PageResolution, error)
	Generate(ctx context.Context, slug, title string) (string, error)
}

type generatePageUsecase struct {
	cache     domain.PageCache
	registry  domain.PageRegistry
	generator domain.TextGenerator
	prompts   domain.PromptStore
	scheduler PromptScheduler
	pageTTL   time.Duration
	memory    *expirable.LRU[string, string]
	flight    singleflight.Group
	logger    *slog.Logger
}

// NewGeneratePageUsecase wires the pipeline. lruSize/lruTTL bound the
// in-memory layer in front of the disk cache.
func NewGeneratePageUsecase(
	cache domain.PageCache,
	registry domain.PageRegistry,
	generator domain.TextGenerator,
	prompts domain.PromptStore,
	scheduler PromptScheduler,
	pageTTL time.Duration,
	lruSize int,
	lruTTL time.Duration,
	logger *slog.Logger,
) GeneratePageUsecase {
	if lruSize <= 0 {
		lruSize = 128
	}
	return &generatePageUsecase{
		cache:     cache,
		registry:  registry,
		generator: generator,
		prompts:   prompts,
		scheduler: scheduler,
		pageTTL:   pageTTL,
		memory:    expirable.NewLRU[string, string](lruSize, nil, lruTTL),
		logger:    logger,
	}
}

func (u *generatePageUsecase) Resolve(ctx context.Context, slug string) (*PageResolution, error) {
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	title := domain.SlugToTitle(slug)

	if html, ok := u.memory.Get(slug); ok {
		return &PageResolution{Title: title, CachedHTML: html}, nil
	}
	if u.cache.IsCached(slug, u.pageTTL, false) {
		if html, ok := u.cache.Get(slug); ok {
			u.memory.Add(slug, html)
			return &PageResolution{Title: title, CachedHTML: html}, nil
		}
	}

	if u.registry.IsValid(slug) {
		return &PageResolution{Title: title, NeedsGeneration: true}, nil
	}

	verdict, err := u.validateTopic(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("topic validation failed: %w", err)
	}
	if !verdict.Valid {
		u.logger.Info("topic rejected", slog.String("slug", slug))
		return nil, domain.ErrTopicRejected
	}

	canonical := verdict.CanonicalTitle
	if canonical == "" {
		canonical = title
	}
	canonicalSlug := domain.TitleToSlug(canonical)
	if canonicalSlug != slug {
		if err := u.registry.Add(canonical); err != nil {
			u.logger.Warn("failed to persist canonical title", "slug", slug, "error", err)
		}
		u.logger.Info("redirecting to canonical slug",
			slog.String("slug", slug), slog.String("canonical", canonicalSlug))
		return &PageResolution{Title: canonical, RedirectSlug: canonicalSlug}, nil
	}

	if err := u.registry.Add(canonical); err != nil {
		u.logger.Warn("failed to persist validated title", "slug", slug, "error", err)
	}
	return &PageResolution{Title: canonical, NeedsGeneration: true}, nil
}

// generationBudget bounds one detached pipeline run. It replaces request
// cancellation as the only way a run ends early.
const generationBudget = 10 * time.Minute

// Generate runs the fan-out pipeline. Concurrent requests for the same
// uncached slug share one run; the per-key flight collapses the thundering
// herd instead of each request generating redundantly.
func (u *generatePageUsecase) Generate(ctx context.Context, slug, title string) (string, error) {
	v, err, _ := u.flight.Do(slug, func() (interface{}, error) {
		// The run is detached from the requester that started it: a
		// disconnect must neither abort work other requests are waiting on
		// nor stop the result from being cached for the next visitor.
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationBudget)
		defer cancel()
		return u.generate(gctx, slug, title)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (u *generatePageUsecase) generate(ctx context.Context, slug, title string) (string, error) {
	genID := uuid.New().String()
	log := u.logger.With(slog.String("generation_id", genID), slog.String("slug", slug))
	started := time.Now()

	// Outline and infobox are independent; sections need the outline.
	var outline *domain.Outline
	var box *domain.Infobox
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outline, err = u.fetchOutline(gctx, title)
		if err != nil {
			return fmt.Errorf("outline generation failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		box, err = u.fetchInfobox(gctx, title)
		if err != nil {
			return fmt.Errorf("infobox generation failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	// Opening and every section run concurrently; results land in outline
	// order, not completion order.
	var opening string
	sections := make([]string, len(outline.Sections))
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := u.generator.Complete(gctx, encyclopedistSystem, openingPrompt(title, outline.Summary))
		if err != nil {
			return fmt.Errorf("opening generation failed: %w", err)
		}
		opening = text
		return nil
	})
	for i, sec := range outline.Sections {
		g.Go(func() error {
			text, err := u.generator.Complete(gctx, encyclopedistSystem, sectionPrompt(title, sec))
			if err != nil {
				return fmt.Errorf("section %q generation failed: %w", sec.Title, err)
			}
			sections[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	article, err := AssembleArticle(slug, title, outline, opening, sections, box)
	if err != nil {
		return "", fmt.Errorf("assembly failed: %w", err)
	}

	// Titles produced by a trusted generation bypass future validation.
	if err := u.registry.Add(title); err != nil {
		log.Warn("failed to persist page title", "error", err)
	}
	if err := u.registry.AddAll(article.LinkedTitles); err != nil {
		log.Warn("failed to persist linked titles", "error", err)
	}

	if err := u.cache.Set(slug, article.HTML); err != nil {
		log.Warn("failed to cache page", "error", err)
	}
	u.memory.Add(slug, article.HTML)

	// Pending markers are registered before the response goes out so the
	// image route can distinguish "generating" from "never referenced".
	for _, ref := range article.Images {
		if err := u.prompts.MarkPending(ref.Slug, title); err != nil {
			log.Warn("failed to register pending prompt", "image", ref.Slug, "error", err)
		}
	}
	if u.scheduler != nil && len(article.Images) > 0 {
		u.scheduler.Schedule(title, article.Images)
	}

	log.Info("page generated",
		slog.Int("sections", len(outline.Sections)),
		slog.Int("images", len(article.Images)),
		slog.Int("links", len(article.LinkedTitles)),
		slog.Duration("elapsed", time.Since(started)))

	return article.HTML, nil
}

func (u *generatePageUsecase) validateTopic(ctx context.Context, title string) (*topicVerdict, error) {
	raw, err := u.generator.CompleteJSON(ctx, curatorSystem, validationPrompt(title))
	if err != nil {
		return nil, err
	}
	var verdict topicVerdict
	if err := decodeWithRepair(raw, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (u *generatePageUsecase) fetchOutline(ctx context.Context, title string) (*domain.Outline, error) {
	raw, err := u.generator.CompleteJSON(ctx, curatorSystem, outlinePrompt(title))
	if err != nil {
		return nil, err
	}
	return DecodeOutline(raw)
}

func (u *generatePageUsecase) fetchInfobox(ctx context.Context, title string) (*domain.Infobox, error) {
	raw, err := u.generator.CompleteJSON(ctx, curatorSystem, infoboxPrompt(title))
	if err != nil {
		return nil, err
	}
	return DecodeInfobox(raw)
}
