package voice

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNoMatch means speech was heard but could not be understood.
	ErrNoMatch = errors.New("voice: could not understand audio")
	// ErrUnavailable means the recognition backend could not be reached.
	ErrUnavailable = errors.New("voice: recognition service unavailable")
	// ErrNoSpeech means nothing was heard before the listen timeout.
	ErrNoSpeech = errors.New("voice: listen timed out")
	// ErrQueueFull is returned by Submit when the utterance queue is full.
	ErrQueueFull = errors.New("voice: utterance queue full")
)

// Recognizer yields recognized utterances. Listen blocks until text is
// available, the listen timeout elapses or ctx is done.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context) (string, error)

// Listen implements Recognizer.
func (f RecognizerFunc) Listen(ctx context.Context) (string, error) { return f(ctx) }

// QueueRecognizer is fed text that was already recognized elsewhere, for
// example by a browser speech API posting to the HTTP surface.
type QueueRecognizer struct {
	queue       chan string
	timeout     time.Duration
	phraseLimit int
}

// NewQueueRecognizer creates a recognizer holding at most size pending
// utterances. Utterances longer than phraseLimit runes are truncated; zero
// disables the limit.
func NewQueueRecognizer(size int, timeout time.Duration, phraseLimit int) *QueueRecognizer {
	if size <= 0 {
		size = 16
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &QueueRecognizer{
		queue:       make(chan string, size),
		timeout:     timeout,
		phraseLimit: phraseLimit,
	}
}

// Submit enqueues an utterance without blocking.
func (q *QueueRecognizer) Submit(text string) error {
	select {
	case q.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued utterances.
func (q *QueueRecognizer) Pending() int { return len(q.queue) }

// Listen implements Recognizer. A blank utterance yields ErrNoMatch.
func (q *QueueRecognizer) Listen(ctx context.Context) (string, error) {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", ErrNoSpeech
	case text := <-q.queue:
		text = strings.TrimSpace(text)
		if text == "" {
			return "", ErrNoMatch
		}
		if q.phraseLimit > 0 {
			if r := []rune(text); len(r) > q.phraseLimit {
				text = string(r[:q.phraseLimit])
			}
		}
		return strings.ToLower(text), nil
	}
}
