package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/starford/fileexpo/internal/apperr"
	"github.com/starford/fileexpo/internal/sse"
)

// State of the assistant.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
)

// Assistant runs the listening loop. Stop is cooperative: the flag is
// observed at the top of each iteration, so a pending Listen completes first.
type Assistant struct {
	dispatcher *Dispatcher
	recognizer Recognizer
	speaker    Speaker
	publisher  Publisher
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	listening bool
	running   bool
	closed    bool
	wg        sync.WaitGroup
}

// NewAssistant creates an idle assistant. publisher may be nil.
func NewAssistant(d *Dispatcher, r Recognizer, s Speaker, p Publisher, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Assistant{
		dispatcher: d,
		recognizer: r,
		speaker:    s,
		publisher:  p,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
	}
}

// State returns the current state.
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Start moves to Listening and launches the loop. Starting a listening
// assistant returns apperr.ErrConflict.
func (a *Assistant) Start() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return apperr.ErrNotConfigured
	}
	if a.state == StateListening {
		a.mu.Unlock()
		return apperr.ErrConflict
	}
	a.state = StateListening
	a.listening = true
	if !a.running {
		a.running = true
		a.wg.Add(1)
		go a.loop()
	}
	a.mu.Unlock()

	a.speak(SayStarted)
	a.publishState(StateListening)
	a.logger.Info("voice: assistant started")
	return nil
}

// Stop clears the listening flag and moves to Idle.
func (a *Assistant) Stop() {
	a.mu.Lock()
	a.listening = false
	a.state = StateIdle
	a.mu.Unlock()

	a.publishState(StateIdle)
	a.speak(SayStopped)
	a.logger.Info("voice: assistant stopped")
}

// Handle dispatches one utterance. A stop intent stops the assistant.
func (a *Assistant) Handle(ctx context.Context, text string) Outcome {
	out := a.dispatcher.Dispatch(ctx, text)
	if out.Intent == IntentStop {
		a.Stop()
		out.Feedback = SayStopped
	}
	return out
}

// Close cancels a pending Listen and waits for the loop to exit.
func (a *Assistant) Close() {
	a.mu.Lock()
	a.closed = true
	a.listening = false
	a.state = StateIdle
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}

func (a *Assistant) loop() {
	defer a.wg.Done()

	for {
		a.mu.Lock()
		if !a.listening {
			a.running = false
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		text, err := a.recognizer.Listen(a.ctx)
		switch {
		case err == nil:
			a.Handle(a.ctx, text)
		case a.ctx.Err() != nil:
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return
		case errors.Is(err, ErrNoSpeech):
			a.logger.Debug("voice: no speech before timeout")
		case errors.Is(err, ErrNoMatch):
			a.logger.Info("voice: could not understand audio")
		case errors.Is(err, ErrUnavailable):
			a.logger.Warn("voice: recognition service unavailable")
			a.speak(SayUnavailable)
		default:
			a.fail(err)
			return
		}
	}
}

// fail ends the loop on an unexpected recognizer error and tells the user.
func (a *Assistant) fail(err error) {
	a.logger.Error("voice: listening stopped", slog.String("error", err.Error()))

	a.mu.Lock()
	a.listening = false
	a.running = false
	a.state = StateIdle
	a.mu.Unlock()

	a.publishState(StateIdle)
	if a.publisher != nil {
		a.publisher.Publish(sse.Event{
			Type: sse.TypeNotification,
			Data: sse.Notification{Operation: "voice", Message: "Voice assistant stopped: " + err.Error()},
		})
	}
}

func (a *Assistant) speak(text string) {
	if a.speaker != nil {
		a.speaker.Speak(text)
	}
}

func (a *Assistant) publishState(s State) {
	if a.publisher == nil {
		return
	}
	a.publisher.Publish(sse.Event{Type: sse.TypeVoiceState, Data: map[string]string{"state": string(s)}})
}
