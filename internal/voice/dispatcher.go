package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/metrics"
	"github.com/starford/fileexpo/internal/models"
)

// Spoken feedback.
const (
	SayStarted       = "Voice assistant started. Awaiting your command."
	SayStopped       = "Voice assistant stopped."
	SayUnavailable   = "Voice service unavailable."
	SayNotRecognized = "Command not recognized."
	SayUnknownPlace  = "Navigation path not recognized."
	SayPlaceNotFound = "Navigation path not found."
	SayNoName        = "No name given."
	sayOpenedPrefix  = "Opened "
	sayFoundFormat   = "Found %d results."
	sayNothingFound  = "No results found."
)

// Explorer is the subset of explorer operations reachable by voice.
type Explorer interface {
	Navigate(ctx context.Context, path string) error
	Back(ctx context.Context) error
	Up(ctx context.Context) error
	CreateFile(ctx context.Context, name string) (string, error)
	MakeDir(ctx context.Context, name string) (string, error)
	DeleteSelection(ctx context.Context) ([]string, error)
	RenameSelection(ctx context.Context, name string) (string, error)
	Search(ctx context.Context, query string) ([]models.Entry, error)
}

// Speaker plays feedback to the user.
type Speaker interface {
	Speak(text string)
}

// Destination maps a spoken keyword to a directory.
type Destination struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Path    string `yaml:"path" json:"path"`
}

// DefaultDestinations returns downloads, documents and desktop under home.
func DefaultDestinations(home string) []Destination {
	return []Destination{
		{Keyword: "downloads", Path: filepath.Join(home, "Downloads")},
		{Keyword: "documents", Path: filepath.Join(home, "Documents")},
		{Keyword: "desktop", Path: filepath.Join(home, "Desktop")},
	}
}

// Outcome reports what a dispatched utterance did.
type Outcome struct {
	Command
	Feedback string `json:"feedback,omitempty"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

type action func(d *Dispatcher, ctx context.Context, cmd Command) Outcome

// Dispatcher routes parsed commands to the explorer. It holds no persisted
// state.
type Dispatcher struct {
	explorer     Explorer
	speaker      Speaker
	destinations []Destination
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher. destinations are matched in order.
func NewDispatcher(explorer Explorer, speaker Speaker, destinations []Destination, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		explorer:     explorer,
		speaker:      speaker,
		destinations: destinations,
		logger:       logger,
	}
}

// Destinations returns the configured navigation table.
func (d *Dispatcher) Destinations() []Destination {
	return append([]Destination(nil), d.destinations...)
}

// Dispatch parses text and runs the matching action.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Outcome {
	cmd, r := parse(text)
	d.logger.Info("voice: command", slog.String("text", cmd.Text), slog.String("intent", string(cmd.Intent)))
	metrics.RecordVoiceCommand(string(cmd.Intent))
	if r == nil {
		return d.say(Outcome{Command: cmd}, SayNotRecognized)
	}
	return r.action(d, ctx, cmd)
}

func (d *Dispatcher) say(out Outcome, text string) Outcome {
	out.Feedback = text
	if d.speaker != nil {
		d.speaker.Speak(text)
	}
	return out
}

func (d *Dispatcher) fail(out Outcome, err error) Outcome {
	out.Error = err.Error()
	d.logger.Warn("voice: action failed",
		slog.String("intent", string(out.Intent)),
		slog.String("error", err.Error()),
	)
	return out
}

func (d *Dispatcher) navigate(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	var target string
	for _, dest := range d.destinations {
		if strings.Contains(cmd.Text, strings.ToLower(dest.Keyword)) {
			target = dest.Path
			break
		}
	}
	if target == "" {
		return d.say(out, SayUnknownPlace)
	}
	out.Arg = target
	if _, err := os.Stat(target); err != nil {
		return d.say(out, SayPlaceNotFound)
	}
	if err := d.explorer.Navigate(ctx, target); err != nil {
		return d.fail(out, err)
	}
	return d.say(out, sayOpenedPrefix+filepath.Base(target))
}

func (d *Dispatcher) back(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	if err := d.explorer.Back(ctx); err != nil {
		return d.fail(out, err)
	}
	return out
}

func (d *Dispatcher) up(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	if err := d.explorer.Up(ctx); err != nil {
		return d.fail(out, err)
	}
	return out
}

func (d *Dispatcher) createFile(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	if cmd.Arg == "" {
		return d.say(out, SayNoName)
	}
	path, err := d.explorer.CreateFile(ctx, cmd.Arg)
	if err != nil {
		return d.fail(out, err)
	}
	out.Result = path
	return out
}

func (d *Dispatcher) createFolder(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	if cmd.Arg == "" {
		return d.say(out, SayNoName)
	}
	path, err := d.explorer.MakeDir(ctx, cmd.Arg)
	if err != nil {
		return d.fail(out, err)
	}
	out.Result = path
	return out
}

func (d *Dispatcher) deleteSelection(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	deleted, err := d.explorer.DeleteSelection(ctx)
	if errors.Is(err, apperr.ErrNoSelection) {
		return out
	}
	if err != nil {
		return d.fail(out, err)
	}
	out.Result = deleted
	return out
}

func (d *Dispatcher) rename(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	if cmd.Arg == "" {
		return d.say(out, SayNoName)
	}
	path, err := d.explorer.RenameSelection(ctx, cmd.Arg)
	if err != nil {
		return d.fail(out, err)
	}
	out.Result = path
	return out
}

func (d *Dispatcher) search(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	results, err := d.explorer.Search(ctx, cmd.Arg)
	if err != nil {
		return d.fail(out, err)
	}
	out.Result = results
	if len(results) == 0 {
		return d.say(out, sayNothingFound)
	}
	return d.say(out, fmt.Sprintf(sayFoundFormat, len(results)))
}

// stop is handled by the Assistant, which owns the listening state.
func (d *Dispatcher) stop(_ context.Context, cmd Command) Outcome {
	return Outcome{Command: cmd}
}
