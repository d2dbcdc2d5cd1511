package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes engine counters. Pass a registerer to publish them; a nil
// registerer keeps the counters local, which is what tests want.
type Metrics struct {
	FramesRouted     *prometheus.CounterVec
	FramesDropped    prometheus.Counter
	MessagesAppended prometheus.Counter
	Connects         prometheus.Counter
	ConnectFailures  prometheus.Counter
}

// NewMetrics creates the engine counters and registers them if reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "w3chat_frames_routed_total",
			Help: "Inbound frames dispatched to a handler, by frame type.",
		}, []string{"type"}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "w3chat_frames_dropped_total",
			Help: "Inbound frames dropped as malformed, unknown, or unroutable.",
		}),
		MessagesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "w3chat_messages_appended_total",
			Help: "Chat messages appended to a channel buffer.",
		}),
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "w3chat_connects_total",
			Help: "Successful websocket connects.",
		}),
		ConnectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "w3chat_connect_failures_total",
			Help: "Failed websocket connect attempts, including timeouts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FramesRouted, m.FramesDropped, m.MessagesAppended, m.Connects, m.ConnectFailures)
	}
	return m
}
