package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"everpedia/internal/domain"
)

const searchKeyPrefix = "search_"

// SearchUsecase serves topic suggestions for the search box. Results come
// from the model, are cached for a day, and every suggested title enters the
// valid-page registry so clicking a suggestion skips validation.
type SearchUsecase interface {
	Execute(ctx context.Context, query string) ([]domain.SearchSuggestion, error)
}

type searchUsecase struct {
	cache     domain.PageCache
	registry  domain.PageRegistry
	generator domain.TextGenerator
	ttl       time.Duration
	logger    *slog.Logger
}

func NewSearchUsecase(
	cache domain.PageCache,
	registry domain.PageRegistry,
	generator domain.TextGenerator,
	ttl time.Duration,
	logger *slog.Logger,
) SearchUsecase {
	return &searchUsecase{
		cache:     cache,
		registry:  registry,
		generator: generator,
		ttl:       ttl,
		logger:    logger,
	}
}

func (u *searchUsecase) Execute(ctx context.Context, query string) ([]domain.SearchSuggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []domain.SearchSuggestion{}, nil
	}

	key := searchKeyPrefix + domain.TitleToSlug(strings.ToLower(query))
	if u.cache.IsCached(key, u.ttl, false) {
		if raw, ok := u.cache.Get(key); ok {
			var cached []domain.SearchSuggestion
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	raw, err := u.generator.CompleteJSON(ctx, curatorSystem, searchPrompt(query))
	if err != nil {
		return nil, err
	}
	var list suggestionList
	if err := decodeWithRepair(raw, &list); err != nil {
		return nil, err
	}

	suggestions := make([]domain.SearchSuggestion, 0, len(list.Suggestions))
	titles := make([]string, 0, len(list.Suggestions))
	for _, s := range list.Suggestions {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		suggestions = append(suggestions, domain.SearchSuggestion{
			Title: title,
			Slug:  domain.TitleToSlug(title),
		})
		titles = append(titles, title)
	}

	// Suggested titles carry search provenance; they bypass later validation.
	if err := u.registry.AddAll(titles); err != nil {
		u.logger.Warn("failed to persist suggested titles", "error", err)
	}

	if encoded, err := json.Marshal(suggestions); err == nil {
		if err := u.cache.Set(key, string(encoded)); err != nil {
			u.logger.Warn("failed to cache search results", "query", query, "error", err)
		}
	}

	return suggestions, nil
}
