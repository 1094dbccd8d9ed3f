package tap

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

// Config configures the tap server.
type Config struct {
	// Namespace is the metrics namespace (default: "rivulet").
	Namespace string

	// Registry receives the tap's metric instruments
	// (default: prometheus.DefaultRegisterer).
	Registry prometheus.Registerer

	// Gatherer backs the /metrics endpoint
	// (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// TracerName names the OpenTelemetry tracer (default: "rivulet-tap").
	TracerName string

	// Logger receives connection lifecycle logs (default: slog.Default()).
	Logger *slog.Logger

	// SendBuffer is the per-connection frame buffer. A subscriber that
	// falls further behind than this loses frames rather than stalling
	// the stream (default: 256).
	SendBuffer int

	// WriteTimeout bounds a single websocket write (default: 10s).
	WriteTimeout time.Duration
}

// Option configures the tap server.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithRegistry directs metrics at reg and serves /metrics from it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
		c.Gatherer = reg
	}
}

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) { c.TracerName = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithSendBuffer sets the per-connection frame buffer size.
func WithSendBuffer(n int) Option {
	return func(c *Config) { c.SendBuffer = n }
}

func defaultConfig() Config {
	return Config{
		Namespace:    "rivulet",
		Registry:     prometheus.DefaultRegisterer,
		Gatherer:     prometheus.DefaultGatherer,
		TracerName:   defaultTracerName,
		Logger:       slog.Default(),
		SendBuffer:   256,
		WriteTimeout: 10 * time.Second,
	}
}

// Frame is the JSON wire form of one tapped event.
type Frame struct {
	Stream string `json:"stream"`
	Kind   string `json:"kind"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server serves a Hub over HTTP.
type Server struct {
	hub      *Hub
	cfg      Config
	log      *slog.Logger
	tracer   trace.Tracer
	metrics  *metrics
	upgrader websocket.Upgrader
}

// NewServer wires a server around hub, registering its metric
// instruments and binding them to the hub's streams.
func NewServer(hub *Hub, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		hub:     hub,
		cfg:     cfg,
		log:     cfg.Logger,
		tracer:  resolveTracer(cfg.TracerName),
		metrics: newMetrics(cfg),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	hub.bindMetrics(s.metrics)
	return s
}

// Router returns the tap's HTTP routes:
//
//	GET /healthz          liveness plus registered stream names
//	GET /metrics          Prometheus exposition
//	GET /events/{stream}  websocket feed of one stream
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/events/{stream}", s.handleEvents)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"streams": s.hub.Names(),
	})
}

// handleEvents upgrades the connection and forwards the named stream's
// events as JSON frames until the stream terminates or the client leaves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "stream")
	stream, ok := s.hub.Stream(name)
	if !ok {
		http.Error(w, "unknown stream", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("tap upgrade failed", "stream", name, "error", err)
		return
	}

	_, span := s.startConnSpan(r.Context(), name, r.RemoteAddr)
	s.metrics.connections.Inc()
	s.log.Info("tap subscriber connected", "stream", name, "remote", r.RemoteAddr)

	frames := make(chan Frame, s.cfg.SendBuffer)
	done := make(chan struct{})

	// The stream observer only enqueues; a full buffer drops the frame
	// so a slow subscriber cannot stall delivery to other observers.
	handle := stream.Observe(rivulet.NewObserver(func(e rivulet.Event[any]) {
		select {
		case frames <- frameFor(name, e):
		default:
			s.metrics.framesDropped.WithLabelValues(name).Inc()
		}
		if e.IsTerminal() {
			close(done)
		}
	}))

	// Reads only surface client disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var sent int64
	var connErr error

writeLoop:
	for {
		select {
		case f := <-frames:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteJSON(f); err != nil {
				connErr = err
				break writeLoop
			}
			sent++
		case <-done:
			// Drain what the observer enqueued before the terminal.
			for {
				select {
				case f := <-frames:
					conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
					if err := conn.WriteJSON(f); err != nil {
						connErr = err
						break writeLoop
					}
					sent++
				default:
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream terminated"),
						time.Now().Add(s.cfg.WriteTimeout))
					break writeLoop
				}
			}
		case <-clientGone:
			break writeLoop
		}
	}

	handle.Dispose()
	conn.Close()
	s.metrics.connections.Dec()
	endConnSpan(span, sent, connErr)
	s.log.Info("tap subscriber disconnected", "stream", name, "frames", sent, "error", connErr)
}

func frameFor(name string, e rivulet.Event[any]) Frame {
	f := Frame{Stream: name, Kind: e.Kind().String()}
	if v, ok := e.Value(); ok {
		f.Value = v
	}
	if err := e.Err(); err != nil {
		f.Error = err.Error()
	}
	return f
}
