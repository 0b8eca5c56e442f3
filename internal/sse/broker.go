// Package sse implements a Server-Sent Events broker for live vault and
// analysis updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one broadcast message. Type becomes the SSE event name and Data
// is JSON-encoded into the data field.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// noteChange is a vault mutation relayed by the watcher or the API.
type noteChange struct {
	kind string
	path string
}

var noteEventTypes = map[string]string{
	"created": "note.created",
	"updated": "note.updated",
	"deleted": "note.deleted",
}

// Broker fans events out to connected SSE clients. A single loop goroutine
// owns all mutable state (client set, graph throttle timestamp), and the
// public methods talk to it over channels, so no mutexes are needed.
type Broker struct {
	graphEvery time.Duration

	join    chan chan []byte
	leave   chan chan []byte
	events  chan Event
	changes chan noteChange
	clientN chan chan int

	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewBroker starts the broker loop. graphEvery bounds how often a
// graph.updated event accompanies note changes.
func NewBroker(graphEvery time.Duration) *Broker {
	if graphEvery <= 0 {
		graphEvery = 2 * time.Second
	}
	b := &Broker{
		graphEvery: graphEvery,
		join:       make(chan chan []byte),
		leave:      make(chan chan []byte),
		events:     make(chan Event, 256),
		changes:    make(chan noteChange, 256),
		clientN:    make(chan chan int),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go b.loop()
	return b
}

// frame renders one event in SSE wire format.
func frame(event Event) ([]byte, bool) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, false
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), true
}

func (b *Broker) loop() {
	defer close(b.done)

	clients := make(map[chan []byte]struct{})
	var lastGraph time.Time

	send := func(event Event) {
		raw, ok := frame(event)
		if !ok {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.events:
			send(event)

		case change := <-b.changes:
			if typ, ok := noteEventTypes[change.kind]; ok {
				send(Event{Type: typ, Data: map[string]string{"path": change.path}})
			}
			if now := time.Now(); now.Sub(lastGraph) >= b.graphEvery {
				lastGraph = now
				send(Event{Type: "graph.updated", Data: map[string]string{}})
			}

		case resp := <-b.clientN:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a new client and returns its delivery channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.done:
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
	case b.leave <- ch:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.clientN <- resp:
	case <-b.done:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.done:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.done:
	}
}

// PublishNoteEvent publishes a note change followed by a throttled
// graph.updated event.
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- noteChange{kind: kind, path: path}:
	case <-b.done:
	}
}

// PublishAnalysisProgress publishes a human-readable pipeline progress message.
func (b *Broker) PublishAnalysisProgress(message string) {
	b.Publish(Event{Type: "analysis.progress", Data: map[string]string{"message": message}})
}

// PublishAnalysisCompleted publishes the outcome of a finished analysis run.
func (b *Broker) PublishAnalysisCompleted(notePath string, entryCount int) {
	b.Publish(Event{Type: "analysis.completed", Data: map[string]any{
		"note_path":   notePath,
		"entry_count": entryCount,
	}})
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
