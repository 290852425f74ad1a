package explorer

import "log/slog"

// Option is a functional option for configuring an Explorer.
type Option func(*Explorer)

// WithStartDir sets the initial directory. "~" expands to the home directory.
func WithStartDir(dir string) Option {
	return func(e *Explorer) {
		e.startDir = dir
	}
}

// WithShowHidden includes dot-files in listings.
func WithShowHidden(show bool) Option {
	return func(e *Explorer) {
		e.showHidden = show
	}
}

// WithUsage records accesses on open and create.
func WithUsage(u AccessRecorder) Option {
	return func(e *Explorer) {
		e.usage = u
	}
}

// WithTags adds tag matches to search results.
func WithTags(t TagLookup) Option {
	return func(e *Explorer) {
		e.tags = t
	}
}

// WithSearcher sets the file-name search backend. Without one, search walks
// the current directory.
func WithSearcher(s Searcher) Option {
	return func(e *Explorer) {
		e.searcher = s
	}
}

// WithLauncher sets how files are opened.
func WithLauncher(l Launcher) Option {
	return func(e *Explorer) {
		e.launcher = l
	}
}

// WithEvents sets the receiver of notifications and file events.
func WithEvents(ev Events) Option {
	return func(e *Explorer) {
		if ev != nil {
			e.events = ev
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Explorer) {
		if l != nil {
			e.logger = l
		}
	}
}
