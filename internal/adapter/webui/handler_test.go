package webui_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"everpedia/internal/adapter/webui"
	"everpedia/internal/domain"
	"everpedia/internal/usecase"
)

// --- mocks ---

type MockPages struct {
	mock.Mock
}

func (m *MockPages) Resolve(ctx context.Context, slug string) (*usecase.PageResolution, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PageResolution), args.Error(1)
}

func (m *MockPages) Generate(ctx context.Context, slug, title string) (string, error) {
	args := m.Called(ctx, slug, title)
	return args.String(0), args.Error(1)
}

type MockImages struct {
	mock.Mock
}

func (m *MockImages) Execute(ctx context.Context, input usecase.FetchImageInput) (*usecase.FetchImageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.FetchImageOutput), args.Error(1)
}

type MockSearch struct {
	mock.Mock
}

func (m *MockSearch) Execute(ctx context.Context, query string) ([]domain.SearchSuggestion, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchSuggestion), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) IsCached(key string, maxAge time.Duration, binary bool) bool {
	return m.Called(key, maxAge, binary).Bool(0)
}
func (m *MockCache) Get(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}
func (m *MockCache) GetBinary(key string) ([]byte, map[string]string, bool) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, nil, args.Bool(2)
	}
	return args.Get(0).([]byte), args.Get(1).(map[string]string), args.Bool(2)
}
func (m *MockCache) Set(key, content string) error { return m.Called(key, content).Error(0) }
func (m *MockCache) SetBinary(key string, data []byte, metadata map[string]string) error {
	return m.Called(key, data, metadata).Error(0)
}
func (m *MockCache) Stats() (domain.CacheStats, error) {
	args := m.Called()
	return args.Get(0).(domain.CacheStats), args.Error(1)
}
func (m *MockCache) ClearExpired(maxAge time.Duration) (int, error) {
	args := m.Called(maxAge)
	return args.Int(0), args.Error(1)
}

type testEnv struct {
	e      *echo.Echo
	pages  *MockPages
	images *MockImages
	search *MockSearch
	cache  *MockCache
}

func setup() *testEnv {
	env := &testEnv{
		e:      echo.New(),
		pages:  new(MockPages),
		images: new(MockImages),
		search: new(MockSearch),
		cache:  new(MockCache),
	}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := webui.NewHandler(env.pages, env.images, env.search, env.cache, log)
	h.RegisterRoutes(env.e)
	return env
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestLanding(t *testing.T) {
	env := setup()

	rec := env.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Everpedia")
	assert.Contains(t, rec.Body.String(), "search-box")
}

func TestWiki_CachedPage(t *testing.T) {
	env := setup()
	env.pages.On("Resolve", mock.Anything, "Roman_Empire").Return(&usecase.PageResolution{
		Title:      "Roman Empire",
		CachedHTML: "<p>cached body</p>",
	}, nil)

	rec := env.get("/wiki/Roman_Empire")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>cached body</p>")
	assert.Contains(t, rec.Body.String(), "<title>Roman Empire")
	env.pages.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestWiki_RejectedTopic(t *testing.T) {
	env := setup()
	env.pages.On("Resolve", mock.Anything, "Asdfghjkl").Return(nil, domain.ErrTopicRejected)

	rec := env.get("/wiki/Asdfghjkl")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestWiki_CanonicalRedirect(t *testing.T) {
	env := setup()
	env.pages.On("Resolve", mock.Anything, "roman_empire").Return(&usecase.PageResolution{
		Title:        "Roman Empire",
		RedirectSlug: "Roman_Empire",
	}, nil)

	rec := env.get("/wiki/roman_empire")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/wiki/Roman_Empire", rec.Header().Get(echo.HeaderLocation))
}

func TestWiki_StreamsGeneratedPage(t *testing.T) {
	env := setup()
	env.pages.On("Resolve", mock.Anything, "Roman_Empire").Return(&usecase.PageResolution{
		Title:           "Roman Empire",
		NeedsGeneration: true,
	}, nil)
	env.pages.On("Generate", mock.Anything, "Roman_Empire", "Roman Empire").
		Return("<p>generated body</p>", nil)

	rec := env.get("/wiki/Roman_Empire")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// Shell first, then the body fragment, then the closing chrome.
	assert.Contains(t, body, `id="loading"`)
	assert.Contains(t, body, "<p>generated body</p>")
	assert.Contains(t, body, "</html>")
	assert.Less(t, strings.Index(body, `id="loading"`), strings.Index(body, "generated body"))
}

func TestWiki_GenerationFailureStreamsErrorFragment(t *testing.T) {
	env := setup()
	env.pages.On("Resolve", mock.Anything, "Roman_Empire").Return(&usecase.PageResolution{
		Title:           "Roman Empire",
		NeedsGeneration: true,
	}, nil)
	env.pages.On("Generate", mock.Anything, "Roman_Empire", "Roman Empire").
		Return("", errors.New("model unavailable"))

	rec := env.get("/wiki/Roman_Empire")

	// The status was already committed before the failure.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "error-fragment")
	assert.Contains(t, rec.Body.String(), "</html>")
}

func TestImage_Success(t *testing.T) {
	env := setup()
	env.images.On("Execute", mock.Anything, usecase.FetchImageInput{
		Slug: "Roman_Forum", Ext: "webp", Aspect: "16:9",
	}).Return(&usecase.FetchImageOutput{
		Data:        []byte("image-bytes"),
		ContentType: "image/webp",
	}, nil)

	rec := env.get("/images/Roman_Forum.webp?aspect=16:9")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "public, max-age=604800", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "image-bytes", rec.Body.String())
}

func TestImage_DefaultAspect(t *testing.T) {
	env := setup()
	env.images.On("Execute", mock.Anything, usecase.FetchImageInput{
		Slug: "Roman_Forum", Ext: "webp", Aspect: "4:3",
	}).Return(&usecase.FetchImageOutput{Data: []byte("x"), ContentType: "image/webp"}, nil)

	rec := env.get("/images/Roman_Forum.webp")

	assert.Equal(t, http.StatusOK, rec.Code)
	env.images.AssertExpectations(t)
}

func TestImage_UnsupportedExtension(t *testing.T) {
	env := setup()

	for _, path := range []string{"/images/evil.exe", "/images/noext", "/images/.webp"} {
		rec := env.get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	env.images.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestImage_UnknownImage(t *testing.T) {
	env := setup()
	env.images.On("Execute", mock.Anything, mock.Anything).Return(nil, domain.ErrPromptMissing)

	rec := env.get("/images/Unknown.webp")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImage_StillGenerating(t *testing.T) {
	env := setup()
	env.images.On("Execute", mock.Anything, mock.Anything).Return(nil, domain.ErrPromptPending)

	rec := env.get("/images/Roman_Forum.webp")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "generating")
}

func TestSearch(t *testing.T) {
	env := setup()
	env.search.On("Execute", mock.Anything, "roman").Return([]domain.SearchSuggestion{
		{Title: "Roman Empire", Slug: "Roman_Empire"},
	}, nil)

	rec := env.get("/api/search?q=roman")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"title": "Roman Empire", "slug": "Roman_Empire"}]`, rec.Body.String())
}

func TestCacheStats(t *testing.T) {
	env := setup()
	env.cache.On("Stats").Return(domain.CacheStats{FileCount: 3, TextFiles: 2, BinaryFiles: 1, TotalSizeBytes: 4096}, nil)

	rec := env.get("/api/cache-stats")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"file_count":3`)
}
