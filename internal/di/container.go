package di

import (
	"fmt"
	"log/slog"
	"time"

	"everpedia/internal/adapter/filestore"
	"everpedia/internal/adapter/imageapi"
	"everpedia/internal/adapter/llmapi"
	"everpedia/internal/adapter/webui"
	"everpedia/internal/domain"
	"everpedia/internal/infra/config"
	"everpedia/internal/infra/httpclient"
	"everpedia/internal/usecase"
	"everpedia/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Cache    domain.PageCache
	Registry domain.PageRegistry
	Prompts  domain.PromptStore

	Pages  usecase.GeneratePageUsecase
	Images usecase.FetchImageUsecase
	Search usecase.SearchUsecase

	Worker  *worker.PromptWorker
	Handler *webui.Handler
}

// NewApplicationComponents wires all dependencies from config.
func NewApplicationComponents(cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	// Stores
	cache, err := filestore.NewDiskCache(cfg.CacheDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	registry, err := filestore.NewValidPageRegistry(cfg.RegistryPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	prompts := filestore.NewPromptStore(cache, log)

	// Shared HTTP clients with connection pooling
	llmHTTP := httpclient.NewPooledClient(time.Duration(cfg.LLMTimeout) * time.Second)
	imageHTTP := httpclient.NewPooledClient(time.Duration(cfg.ImageTimeout) * time.Second)

	// External clients
	textGen := llmapi.NewOpenAIText(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.TextModel, llmHTTP)
	imageGen := imageapi.NewOpenAIImage(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ImageModel, imageHTTP, cfg.ImagesPerMinute)
	log.Info("Generators wired",
		"text_model", textGen.Version(),
		"image_model", imageGen.Version())

	// Prompt preparation runs on the worker, off the page-render path.
	preparePrompts := usecase.NewPreparePromptsUsecase(textGen, prompts, log)
	promptWorker := worker.NewPromptWorker(preparePrompts, log)

	pageTTL := time.Duration(cfg.PageTTLHours) * time.Hour
	imageTTL := time.Duration(cfg.ImageTTLHours) * time.Hour

	pages := usecase.NewGeneratePageUsecase(
		cache, registry, textGen, prompts, promptWorker,
		pageTTL, cfg.PageLRUSize, time.Duration(cfg.PageLRUTTLMins)*time.Minute,
		log,
	)
	images := usecase.NewFetchImageUsecase(cache, prompts, imageGen, imageTTL, log)
	search := usecase.NewSearchUsecase(cache, registry, textGen, pageTTL, log)

	handler := webui.NewHandler(pages, images, search, cache, log)

	return &ApplicationComponents{
		Cache:    cache,
		Registry: registry,
		Prompts:  prompts,
		Pages:    pages,
		Images:   images,
		Search:   search,
		Worker:   promptWorker,
		Handler:  handler,
	}, nil
}
