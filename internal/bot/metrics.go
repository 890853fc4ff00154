// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the bot does. A nil *Metrics records nothing.
type Metrics struct {
	cycles   *prometheus.CounterVec
	lastPost prometheus.Gauge
}

// NewMetrics creates the bot collectors and registers them with reg, if it's
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bollybot",
			Name:      "cycles_total",
			Help:      "Completed cycles by outcome.",
		}, []string{"outcome"}),
		lastPost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bollybot",
			Name:      "last_post_timestamp_seconds",
			Help:      "Unix time of the last published post.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cycles, m.lastPost)
	}
	return m
}

// Outcome labels besides the [Outcome] names.
const (
	labelRateLimited  = "rate_limited"
	labelUnauthorized = "unauthorized"
	labelError        = "error"
)

func (m *Metrics) cycle(label string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(label).Inc()
}

func (m *Metrics) posted(t time.Time) {
	if m == nil {
		return
	}
	m.lastPost.Set(float64(t.Unix()))
}
