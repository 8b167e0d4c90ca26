// Package sse implements a Server-Sent Events broker that streams vault
// changes to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Event types streamed to clients.
const (
	EventNoteCreated   = "note.created"
	EventNoteUpdated   = "note.updated"
	EventNoteDeleted   = "note.deleted"
	EventMOCCreated    = "moc.created"
	EventSyncCompleted = "sync.completed"
)

// clientBuffer is the per-subscriber frame buffer. A client that falls
// this far behind starts losing frames instead of stalling the loop.
const clientBuffer = 64

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker fans vault events out to SSE subscribers.
//
// A single loop goroutine owns the client set. Everything else talks to
// it through the ops and events channels, so no mutexes are needed.
type Broker struct {
	ops    chan func(clients map[chan []byte]struct{})
	events chan Event

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its loop.
func NewBroker() *Broker {
	b := &Broker{
		ops:     make(chan func(map[chan []byte]struct{})),
		events:  make(chan Event, 256),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case op := <-b.ops:
			op(clients)

		case ev := <-b.events:
			broadcast(clients, ev)
		}
	}
}

func broadcast(clients map[chan []byte]struct{}, ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload))
	for ch := range clients {
		select {
		case ch <- frame:
		default:
			// Client buffer full; drop rather than block the loop.
		}
	}
}

// do hands an operation to the loop. After Close the loop is gone and the
// operation is silently discarded.
func (b *Broker) do(op func(map[chan []byte]struct{})) {
	select {
	case b.ops <- op:
	case <-b.stopped:
	}
}

// Close stops the loop and closes every subscriber channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client and returns its frame channel. On a closed
// broker the returned channel is already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.ops <- func(clients map[chan []byte]struct{}) { clients[ch] = struct{}{} }:
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
	b.do(func(clients map[chan []byte]struct{}) {
		if _, ok := clients[ch]; ok {
			delete(clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	b.do(func(clients map[chan []byte]struct{}) { resp <- len(clients) })
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes a note change. kind is one of "created",
// "updated", "deleted", matching the watcher callback vocabulary;
// anything else is ignored.
func (b *Broker) PublishNoteEvent(kind, path string) {
	var typ string
	switch kind {
	case "created":
		typ = EventNoteCreated
	case "updated":
		typ = EventNoteUpdated
	case "deleted":
		typ = EventNoteDeleted
	default:
		return
	}
	b.Publish(Event{Type: typ, Data: map[string]string{"path": path}})
}

// PublishMOCCreated announces a freshly generated index note.
func (b *Broker) PublishMOCCreated(tag, path string) {
	b.Publish(Event{Type: EventMOCCreated, Data: map[string]string{"tag": tag, "path": path}})
}

// PublishSyncCompleted announces the outcome of an index sync pass.
func (b *Broker) PublishSyncCompleted(indexed, skipped, removed int) {
	b.Publish(Event{Type: EventSyncCompleted, Data: map[string]int{
		"indexed": indexed,
		"skipped": skipped,
		"removed": removed,
	}})
}

// ServeHTTP streams broker events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
