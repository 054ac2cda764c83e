package worker

import (
	"context"
	"log/slog"
	"time"

	"everpedia/internal/domain"
	"everpedia/internal/usecase"
)

const (
	jobTimeout     = 120 * time.Second
	queueCapacity  = 64
	initialBackoff = 1 * time.Second
	maxBackoff     = 5 * time.Minute
)

type promptJob struct {
	articleTitle string
	refs         []domain.ImageReference
}

// PromptWorker prepares image prompts off the page-render path. Page
// generation schedules a job per article; the worker batches the model call
// through PreparePromptsUsecase and backs off when the store keeps failing.
type PromptWorker struct {
	prepare  usecase.PreparePromptsUsecase
	logger   *slog.Logger
	jobs     chan promptJob
	stopChan chan struct{}
	backoff  time.Duration
}

func NewPromptWorker(prepare usecase.PreparePromptsUsecase, logger *slog.Logger) *PromptWorker {
	return &PromptWorker{
		prepare:  prepare,
		logger:   logger,
		jobs:     make(chan promptJob, queueCapacity),
		stopChan: make(chan struct{}),
	}
}

func (w *PromptWorker) Start() {
	w.logger.Info("Starting PromptWorker")
	go w.run()
}

func (w *PromptWorker) Stop() {
	w.logger.Info("Stopping PromptWorker")
	close(w.stopChan)
}

// Schedule enqueues prompt preparation without blocking the caller. A full
// queue skips the batched model call and persists the deterministic fallback
// prompts instead, so every referenced image still becomes ready.
func (w *PromptWorker) Schedule(articleTitle string, refs []domain.ImageReference) {
	select {
	case w.jobs <- promptJob{articleTitle: articleTitle, refs: refs}:
	default:
		w.logger.Warn("prompt queue full, using fallback prompts", "article", articleTitle, "images", len(refs))
		if err := w.prepare.Fallback(articleTitle, refs); err != nil {
			w.logger.Error("failed to persist fallback prompts", "article", articleTitle, "error", err)
		}
	}
}

func (w *PromptWorker) run() {
	for {
		select {
		case <-w.stopChan:
			return
		case job := <-w.jobs:
			w.process(job)
			if w.backoff > 0 {
				select {
				case <-w.stopChan:
					return
				case <-time.After(w.backoff):
				}
			}
		}
	}
}

func (w *PromptWorker) process(job promptJob) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	w.logger.Info("Preparing image prompts", "article", job.articleTitle, "images", len(job.refs))

	if err := w.prepare.Execute(ctx, job.articleTitle, job.refs); err != nil {
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("Worker backing off", "article", job.articleTitle, "backoff", w.backoff, "error", err)
		return
	}
	w.backoff = 0
}

func (w *PromptWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

var _ usecase.PromptScheduler = (*PromptWorker)(nil)
