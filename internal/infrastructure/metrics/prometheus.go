// Package metrics expone contadores del ciclo de vida de las solicitudes de traslado en Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/inventario-traslados/internal/application/inventory"
)

var _ inventory.Metrics = (*Prometheus)(nil)

// Prometheus implementa inventory.Metrics.
type Prometheus struct {
	created  prometheus.Counter
	handled  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheus registra los colectores en reg (usar prometheus.NewRegistry() en tests).
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inventario",
			Subsystem: "transfer",
			Name:      "requests_created_total",
			Help:      "Solicitudes de traslado creadas.",
		}),
		handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventario",
			Subsystem: "transfer",
			Name:      "requests_handled_total",
			Help:      "Intentos de aprobar o rechazar una solicitud, por resultado.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "inventario",
			Subsystem: "transfer",
			Name:      "handle_duration_seconds",
			Help:      "Duración de la transacción de aprobación/rechazo.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.created, m.handled, m.duration)
	return m
}

func (m *Prometheus) RequestCreated() {
	m.created.Inc()
}

func (m *Prometheus) RequestHandled(outcome string, elapsed time.Duration) {
	m.handled.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
