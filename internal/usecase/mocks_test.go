package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"everpedia/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockTextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) Version() string {
	return "mock-text-v1"
}

// MockImageGenerator
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt, aspect string) (*domain.GeneratedImage, error) {
	args := m.Called(ctx, prompt, aspect)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedImage), args.Error(1)
}

func (m *MockImageGenerator) Version() string {
	return "mock-image-v1"
}

// MockPageCache
type MockPageCache struct {
	mock.Mock
}

func (m *MockPageCache) IsCached(key string, maxAge time.Duration, binary bool) bool {
	args := m.Called(key, maxAge, binary)
	return args.Bool(0)
}

func (m *MockPageCache) Get(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}

func (m *MockPageCache) GetBinary(key string) ([]byte, map[string]string, bool) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, nil, args.Bool(2)
	}
	return args.Get(0).([]byte), args.Get(1).(map[string]string), args.Bool(2)
}

func (m *MockPageCache) Set(key, content string) error {
	args := m.Called(key, content)
	return args.Error(0)
}

func (m *MockPageCache) SetBinary(key string, data []byte, metadata map[string]string) error {
	args := m.Called(key, data, metadata)
	return args.Error(0)
}

func (m *MockPageCache) Stats() (domain.CacheStats, error) {
	args := m.Called()
	return args.Get(0).(domain.CacheStats), args.Error(1)
}

func (m *MockPageCache) ClearExpired(maxAge time.Duration) (int, error) {
	args := m.Called(maxAge)
	return args.Int(0), args.Error(1)
}

// MockPageRegistry
type MockPageRegistry struct {
	mock.Mock
}

func (m *MockPageRegistry) IsValid(slug string) bool {
	args := m.Called(slug)
	return args.Bool(0)
}

func (m *MockPageRegistry) Add(title string) error {
	args := m.Called(title)
	return args.Error(0)
}

func (m *MockPageRegistry) AddAll(titles []string) error {
	args := m.Called(titles)
	return args.Error(0)
}

// MockPromptStore
type MockPromptStore struct {
	mock.Mock
}

func (m *MockPromptStore) Get(slug string) (*domain.ImagePromptRecord, bool) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.ImagePromptRecord), args.Bool(1)
}

func (m *MockPromptStore) MarkPending(slug, articleTitle string) error {
	args := m.Called(slug, articleTitle)
	return args.Error(0)
}

func (m *MockPromptStore) MarkReady(slug, prompt string) error {
	args := m.Called(slug, prompt)
	return args.Error(0)
}

// MockScheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(articleTitle string, refs []domain.ImageReference) {
	m.Called(articleTitle, refs)
}
