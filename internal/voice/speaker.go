package voice

import (
	"log/slog"

	"github.com/starford/fileexpo/internal/sse"
)

// Publisher broadcasts UI events.
type Publisher interface {
	Publish(event sse.Event)
}

// EventSpeaker delivers feedback as speech events on the UI event stream.
type EventSpeaker struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewEventSpeaker creates a speaker. publisher may be nil, in which case
// feedback is only logged.
func NewEventSpeaker(publisher Publisher, logger *slog.Logger) *EventSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSpeaker{publisher: publisher, logger: logger}
}

// Speak implements Speaker.
func (s *EventSpeaker) Speak(text string) {
	s.logger.Info("voice: speak", slog.String("text", text))
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(sse.Event{Type: sse.TypeSpeech, Data: map[string]string{"text": text}})
}
