// Package tap exposes running streams for inspection over HTTP: a
// registry of named streams (the Hub), a chi-routed server with a
// websocket endpoint per stream, Prometheus metrics for forwarded events,
// and an OpenTelemetry span per subscription.
//
// The tap observes streams through their public Observe surface only; it
// cannot send into them and does not affect delivery to other observers.
package tap

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

// Hub is a registry of named streams available for tapping.
type Hub struct {
	mu      sync.Mutex
	streams map[string]*rivulet.Stream[any]
	metrics *metrics
}

// NewHub creates an empty hub. Metric instruments are registered lazily
// by the Server that serves this hub; a hub used without a server counts
// nothing.
func NewHub() *Hub {
	return &Hub{streams: make(map[string]*rivulet.Stream[any])}
}

// Register makes a stream available under name. Registering a name twice
// is an error; a terminated stream may be registered and will replay its
// terminal event to subscribers.
func (h *Hub) Register(name string, s *rivulet.Stream[any]) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.streams[name]; exists {
		return fmt.Errorf("rivulet: tap stream %q already registered", name)
	}
	h.streams[name] = s

	if m := h.metrics; m != nil {
		h.countStream(name, s, m)
	}
	return nil
}

// Publish registers a typed stream under name, erasing its element type.
func Publish[T any](h *Hub, name string, s *rivulet.Stream[T]) error {
	return h.Register(name, rivulet.Map(s, func(v T) any { return v }))
}

// Stream returns the stream registered under name.
func (h *Hub) Stream(name string) (*rivulet.Stream[any], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.streams[name]
	return s, ok
}

// Names returns the registered stream names, sorted.
func (h *Hub) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.streams))
	for name := range h.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bindMetrics attaches instruments and starts counting events on every
// stream registered so far. Called once by the Server.
func (h *Hub) bindMetrics(m *metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.metrics != nil {
		return
	}
	h.metrics = m
	for name, s := range h.streams {
		h.countStream(name, s, m)
	}
}

// countStream observes a stream purely to advance counters. Called with
// h.mu held; the observer itself runs outside the lock.
func (h *Hub) countStream(name string, s *rivulet.Stream[any], m *metrics) {
	if s.HasTerminated() {
		return
	}
	m.streamsActive.Inc()
	s.Observe(rivulet.NewObserver(func(e rivulet.Event[any]) {
		m.eventsForwarded.WithLabelValues(name, e.Kind().String()).Inc()
		if e.IsTerminal() {
			m.streamsActive.Dec()
		}
	}))
}
