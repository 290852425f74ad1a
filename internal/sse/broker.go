// Package sse implements the Server-Sent Events broker that carries every
// visible UI effect: spoken feedback, notifications, voice state changes,
// file changes and listing refreshes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/fileexpo/internal/metrics"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types broadcast to clients.
const (
	TypeSpeech         = "speech"
	TypeNotification   = "notification"
	TypeVoiceState     = "voice.state"
	TypeFileCreated    = "file.created"
	TypeFileUpdated    = "file.updated"
	TypeFileDeleted    = "file.deleted"
	TypeListingUpdated = "listing.updated"
	TypeSummaryReady   = "summary.ready"
	TypeSummaryFailed  = "summary.failed"
)

var fileEventTypes = map[string]string{
	"created": TypeFileCreated,
	"updated": TypeFileUpdated,
	"deleted": TypeFileDeleted,
}

// Notification is the payload of a notification event: the failing
// operation and the underlying message.
type Notification struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

const (
	clientBuffer = 64
	// historySize is how many frames a reconnecting client can catch up on.
	historySize = 64
)

// HeartbeatInterval is how often an idle stream receives a comment line.
var HeartbeatInterval = 15 * time.Second

type frame struct {
	id  uint64
	typ string
	raw []byte
}

type subscriber struct {
	ch     chan []byte
	types  map[string]bool
	lastID uint64
}

func (s *subscriber) wants(typ string) bool {
	return len(s.types) == 0 || s.types[typ]
}

type fileEventReq struct {
	kind string
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set, the replay history and the
// listing throttle. Public methods talk to it over channels.
type Broker struct {
	listingMin time.Duration

	subscribeCh   chan *subscriber
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	fileEventCh   chan fileEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given listing throttle interval.
func NewBroker(listingThrottle time.Duration) *Broker {
	if listingThrottle <= 0 {
		listingThrottle = 2 * time.Second
	}

	b := &Broker{
		listingMin:    listingThrottle,
		subscribeCh:   make(chan *subscriber),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		fileEventCh:   make(chan fileEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]*subscriber)
	history := make([]frame, 0, historySize)
	var (
		nextID      uint64
		lastListing time.Time
	)

	deliver := func(s *subscriber, f frame) {
		if !s.wants(f.typ) {
			return
		}
		select {
		case s.ch <- f.raw:
		default:
			// Slow client; drop rather than stall the loop.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		nextID++
		f := frame{
			id:  nextID,
			typ: event.Type,
			raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", nextID, event.Type, payload)),
		}
		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, f)

		for _, s := range clients {
			deliver(s, f)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			metrics.SetSSEConnections(0)
			return

		case s := <-b.subscribeCh:
			clients[s.ch] = s
			metrics.SetSSEConnections(len(clients))
			if s.lastID > 0 {
				for _, f := range history {
					if f.id > s.lastID {
						deliver(s, f)
					}
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}
			metrics.SetSSEConnections(len(clients))

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.fileEventCh:
			typ, ok := fileEventTypes[req.kind]
			if !ok {
				continue
			}
			broadcast(Event{Type: typ, Data: map[string]string{"path": req.path}})

			now := time.Now()
			if now.Sub(lastListing) >= b.listingMin {
				lastListing = now
				broadcast(Event{Type: TypeListingUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. It is idempotent.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client receiving every event.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(nil, 0)
}

// SubscribeFrom adds a client that receives only the listed event types
// (all when empty) and first replays retained events newer than lastID.
func (b *Broker) SubscribeFrom(types []string, lastID uint64) chan []byte {
	var filter map[string]bool
	if len(types) > 0 {
		filter = make(map[string]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}
	return b.subscribe(filter, lastID)
}

func (b *Broker) subscribe(types map[string]bool, lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- &subscriber{ch: ch, types: types, lastID: lastID}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishFileEvent publishes a file change and a throttled listing.updated
// event. kind is one of "created", "updated" or "deleted"; anything else is
// ignored.
func (b *Broker) PublishFileEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.fileEventCh <- fileEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// Notify publishes a notification naming the failed operation.
func (b *Broker) Notify(operation, message string) {
	b.Publish(Event{Type: TypeNotification, Data: Notification{Operation: operation, Message: message}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
//
// Query parameter types takes a comma-separated event type filter. A
// Last-Event-ID header replays retained events the client missed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeFrom(types, lastID)
	defer b.Unsubscribe(ch)

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
