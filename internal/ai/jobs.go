package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/fileexpo/internal/metrics"
	"github.com/starford/fileexpo/internal/sse"
)

const jobTimeout = 2 * time.Minute

// ErrClosed is returned by Submit once the runner is closed.
var ErrClosed = errors.New("ai: jobs closed")

// Publisher receives summary results.
type Publisher interface {
	Publish(event sse.Event)
}

// SummaryResult is the payload of summary.ready and summary.failed events.
type SummaryResult struct {
	JobID   string `json:"job_id"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Jobs runs summaries in the background and publishes each result as an
// event.
type Jobs struct {
	summarizer Summarizer
	publisher  Publisher
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewJobs creates a job runner. Close cancels pending jobs.
func NewJobs(summarizer Summarizer, publisher Publisher, logger *slog.Logger) *Jobs {
	ctx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		summarizer: summarizer,
		publisher:  publisher,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit starts summarizing path and returns the job ID carried by the
// result event.
func (j *Jobs) Submit(path string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return "", ErrClosed
	}
	id := uuid.NewString()
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(id, path)
	}()
	return id, nil
}

func (j *Jobs) run(id, path string) {
	ctx, cancel := context.WithTimeout(j.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	summary, err := j.summarizer.Summarize(ctx, path)
	metrics.RecordSummary(err == nil, time.Since(start))

	if err != nil {
		j.logger.Warn("ai: summary failed", slog.String("job", id), slog.String("path", path), slog.String("error", err.Error()))
		j.publisher.Publish(sse.Event{
			Type: sse.TypeSummaryFailed,
			Data: SummaryResult{JobID: id, Path: path, Error: err.Error()},
		})
		return
	}
	j.logger.Info("ai: summary ready", slog.String("job", id), slog.String("path", path))
	j.publisher.Publish(sse.Event{
		Type: sse.TypeSummaryReady,
		Data: SummaryResult{JobID: id, Path: path, Summary: summary},
	})
}

// Close cancels running jobs and waits for them to finish. Later submissions
// fail with ErrClosed.
func (j *Jobs) Close() {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()
	j.cancel()
	j.wg.Wait()
}
