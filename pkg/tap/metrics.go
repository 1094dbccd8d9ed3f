package tap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for the tap surface.
type metrics struct {
	eventsForwarded *prometheus.CounterVec
	framesDropped   *prometheus.CounterVec
	connections     prometheus.Gauge
	streamsActive   prometheus.Gauge
}

func newMetrics(cfg Config) *metrics {
	factory := promauto.With(cfg.Registry)

	return &metrics{
		eventsForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tap",
			Name:      "events_forwarded_total",
			Help:      "Events forwarded to tap subscribers, by stream and event kind",
		}, []string{"stream", "kind"}),

		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tap",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because a subscriber could not keep up",
		}, []string{"stream"}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tap",
			Name:      "connections",
			Help:      "Currently open tap websocket connections",
		}),

		streamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tap",
			Name:      "streams_active",
			Help:      "Streams registered on the hub that have not terminated",
		}),
	}
}
