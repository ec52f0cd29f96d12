package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reasonPoolFull         = "pool_full"
	reasonAlreadyConnected = "already_connected"
)

// Metrics of the host. A nil registerer leaves them unregistered, which is handy
// in tests.
type Metrics struct {
	Accepted       prometheus.Counter
	Rejected       *prometheus.CounterVec
	Active         prometheus.Gauge
	DeliveryErrors prometheus.Counter
	WriteErrors    prometheus.Counter
	Completed      prometheus.Counter
	BytesReceived  prometheus.Counter
	BytesWritten   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Accepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "pool",
			Name:      "accepted_total",
			Help:      "Total number of connections admitted into the pool",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "pool",
			Name:      "rejected_total",
			Help:      "Total number of connections refused by the pool",
		}, []string{"reason"}),
		Active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "embedweb",
			Subsystem: "pool",
			Name:      "active",
			Help:      "Number of connections currently held",
		}),
		DeliveryErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "requests",
			Name:      "delivery_errors_total",
			Help:      "Total number of requests failed while being read",
		}),
		WriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "requests",
			Name:      "write_errors_total",
			Help:      "Total number of responses failed while being written",
		}),
		Completed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "requests",
			Name:      "completed_total",
			Help:      "Total number of fully written responses",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "net",
			Name:      "received_bytes_total",
			Help:      "Total bytes read from clients",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embedweb",
			Subsystem: "net",
			Name:      "written_bytes_total",
			Help:      "Total bytes written to clients",
		}),
	}
}
