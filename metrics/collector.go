// Package metrics exposes session transitions as prometheus metrics.
package metrics

import (
	"github.com/jrsteele09/go-booklet-session/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ session.Listener = (*Collector)(nil)

type Collector struct {
	events        *prometheus.CounterVec
	authenticated prometheus.Gauge
}

// NewCollector registers the session metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "session_events_total",
			Help: "Total number of session transitions.",
		}, []string{"type", "reason"}),
		authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "session_authenticated",
			Help: "1 while a credential is held, 0 when signed out.",
		}),
	}
}

func (c *Collector) OnSessionEvent(e session.Event) {
	c.events.WithLabelValues(string(e.Type), e.Reason).Inc()
	switch e.Type {
	case session.EventSignedIn, session.EventRefreshed:
		c.authenticated.Set(1)
	case session.EventSignedOut:
		c.authenticated.Set(0)
	}
}
