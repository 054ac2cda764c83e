package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"everpedia/internal/domain"
	"everpedia/internal/usecase"
)

func newSearchUsecase(cache *MockPageCache, registry *MockPageRegistry, gen *MockTextGenerator) usecase.SearchUsecase {
	return usecase.NewSearchUsecase(cache, registry, gen, 24*time.Hour, testLogger())
}

func TestSearch_ShortQueryReturnsEmpty(t *testing.T) {
	gen := new(MockTextGenerator)
	uc := newSearchUsecase(new(MockPageCache), new(MockPageRegistry), gen)

	for _, q := range []string{"", " ", "a", " a "} {
		suggestions, err := uc.Execute(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	}
	gen.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_CacheHit(t *testing.T) {
	cache := new(MockPageCache)
	registry := new(MockPageRegistry)
	gen := new(MockTextGenerator)
	uc := newSearchUsecase(cache, registry, gen)

	cache.On("IsCached", "search_roman_emp", 24*time.Hour, false).Return(true)
	cache.On("Get", "search_roman_emp").
		Return(`[{"title": "Roman Empire", "slug": "Roman_Empire"}]`, true)

	suggestions, err := uc.Execute(context.Background(), "Roman Emp")

	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Roman Empire", suggestions[0].Title)
	gen.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_GeneratesAndRegisters(t *testing.T) {
	cache := new(MockPageCache)
	registry := new(MockPageRegistry)
	gen := new(MockTextGenerator)
	uc := newSearchUsecase(cache, registry, gen)

	cache.On("IsCached", "search_roman_emp", mock.Anything, false).Return(false)
	gen.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"suggestions": [{"title": "Roman Empire"}, {"title": "Roman Emperor"}, {"title": "  "}]}`, nil)
	registry.On("AddAll", []string{"Roman Empire", "Roman Emperor"}).Return(nil)
	cache.On("Set", "search_roman_emp", mock.AnythingOfType("string")).Return(nil)

	suggestions, err := uc.Execute(context.Background(), "Roman Emp")

	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, domain.SearchSuggestion{Title: "Roman Empire", Slug: "Roman_Empire"}, suggestions[0])
	assert.Equal(t, "Roman_Emperor", suggestions[1].Slug)
	registry.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSearch_MalformedOutput(t *testing.T) {
	cache := new(MockPageCache)
	gen := new(MockTextGenerator)
	uc := newSearchUsecase(cache, new(MockPageRegistry), gen)

	cache.On("IsCached", mock.Anything, mock.Anything, false).Return(false)
	gen.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return("no json here", nil)

	_, err := uc.Execute(context.Background(), "Roman Emp")

	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}
