package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/fileexpo/internal/ai"
	"github.com/starford/fileexpo/internal/explorer"
	"github.com/starford/fileexpo/internal/fileservice"
	"github.com/starford/fileexpo/internal/index"
	"github.com/starford/fileexpo/internal/integrity"
	"github.com/starford/fileexpo/internal/metrics"
	"github.com/starford/fileexpo/internal/qrcode"
	"github.com/starford/fileexpo/internal/sse"
	"github.com/starford/fileexpo/internal/storage"
	"github.com/starford/fileexpo/internal/tagging"
	"github.com/starford/fileexpo/internal/usage"
	"github.com/starford/fileexpo/internal/voice"
)

// listingThrottle bounds how often listing.updated reaches SSE clients.
const listingThrottle = 2 * time.Second

// services is the fully wired application graph shared by the HTTP and MCP
// front ends.
type services struct {
	logger       *slog.Logger
	store        storage.Provider
	usage        *usage.Analytics
	files        *fileservice.Service
	broker       *sse.Broker
	db           *index.DB
	indexRoot    string
	explorer     *explorer.Explorer
	destinations []voice.Destination
	recognizer   *voice.QueueRecognizer
	assistant    *voice.Assistant
	summaries    *ai.Jobs
	qr           *qrcode.Encoder
	report       *capabilityReport
}

func buildServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*services, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &services{
		logger: logger,
		store:  storage.NewFS(),
		report: newCapabilityReport(),
	}

	s.usage = usage.New(cfg.Data.UsagePath(), logger,
		usage.WithSaveProbability(cfg.Usage.SaveProbability),
		usage.WithRecentLimit(cfg.Usage.RecentLimit),
		usage.WithObserver(func(string) { metrics.RecordFileAccess() }),
	)

	var summarizer ai.Summarizer = ai.Disabled{}
	switch {
	case !cfg.AI.Enabled:
		s.report.set("ai", false, "disabled in config")
	default:
		client, err := ai.New(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxContentBytes)
		if err != nil {
			s.report.set("ai", false, err.Error())
			break
		}
		summarizer = client
		s.report.set("ai", true, client.Name())
	}

	tags := tagging.New(cfg.Data.TagsPath(), logger, tagging.Chain(tagging.MarkdownSuggester{}, summarizer))
	monitor := integrity.New(cfg.Data.HashesPath(), logger)
	s.files = fileservice.NewService(s.store, s.usage, tags, monitor)

	s.broker = sse.NewBroker(listingThrottle)

	if cfg.Index.Enabled {
		db, err := openIndex(cfg.Index.Path)
		if err != nil {
			s.report.set("search", false, err.Error())
		} else {
			s.db = db
			s.indexRoot = cfg.Index.Root
			s.report.set("search", true, cfg.Index.Root)
		}
	} else {
		s.report.set("search", false, "disabled in config")
	}

	exOpts := []explorer.Option{
		explorer.WithStartDir(cfg.Explorer.StartDir),
		explorer.WithShowHidden(cfg.Explorer.ShowHidden),
		explorer.WithUsage(s.usage),
		explorer.WithTags(tags),
		explorer.WithLauncher(explorer.NewLauncher(cfg.Explorer.OpenCommand)),
		explorer.WithEvents(s.broker),
		explorer.WithLogger(logger),
	}
	if s.db != nil {
		exOpts = append(exOpts, explorer.WithSearcher(s.db))
	}
	ex, err := explorer.New(s.store, exOpts...)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init explorer: %w", err)
	}
	s.explorer = ex

	s.destinations = cfg.Voice.Destinations
	if len(s.destinations) == 0 {
		home, _ := os.UserHomeDir()
		s.destinations = voice.DefaultDestinations(home)
	}
	speaker := voice.NewEventSpeaker(s.broker, logger)
	dispatcher := voice.NewDispatcher(ex, speaker, s.destinations, logger)
	s.recognizer = voice.NewQueueRecognizer(cfg.Voice.QueueSize, cfg.Voice.ListenTimeout, cfg.Voice.PhraseLimit)
	s.assistant = voice.NewAssistant(dispatcher, s.recognizer, speaker, s.broker, logger)
	if cfg.Voice.Enabled {
		s.report.set("voice", true, "utterances via /api/voice/utterance")
	} else {
		s.report.set("voice", false, "disabled in config")
	}

	if s.report.caps.AI {
		s.summaries = ai.NewJobs(summarizer, s.broker, logger)
	}

	if cfg.QR.Enabled {
		s.qr = qrcode.New(cfg.QR.Size)
		s.report.set("qr", true, fmt.Sprintf("%dpx", cfg.QR.Size))
	} else {
		s.report.set("qr", false, "disabled in config")
	}

	if cfg.Metrics.Enabled {
		s.report.set("metrics", true, "/metrics")
	} else {
		s.report.set("metrics", false, "disabled in config")
	}

	return s, nil
}

func openIndex(path string) (*index.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return db, nil
}

// runIndexer syncs the search index and then keeps it current until ctx
// is cancelled.
func (s *services) runIndexer(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	refresh := func() {
		if n, err := s.db.Count(); err == nil {
			metrics.SetIndexedFiles(n)
		}
	}
	if err := index.Sync(ctx, s.db, s.store, s.indexRoot, s.logger); err != nil {
		s.logger.Warn("index: initial sync failed", slog.String("error", err.Error()))
	}
	refresh()

	err := index.Watch(ctx, s.db, s.store, s.indexRoot, s.logger, func(kind, path string) {
		s.broker.PublishFileEvent(kind, path)
		refresh()
	})
	if err != nil {
		s.logger.Warn("index: watcher stopped", slog.String("error", err.Error()))
	}
	return nil
}

// close releases everything in reverse dependency order. Safe on a
// partially built graph.
func (s *services) close() {
	if s.assistant != nil {
		s.assistant.Close()
	}
	if s.summaries != nil {
		s.summaries.Close()
	}
	if s.explorer != nil {
		s.explorer.Close()
	}
	if s.usage != nil {
		if err := s.usage.Flush(); err != nil {
			s.logger.Error("usage: flush failed", slog.String("error", err.Error()))
		}
	}
	if s.broker != nil {
		s.broker.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("index: close failed", slog.String("error", err.Error()))
		}
	}
}
