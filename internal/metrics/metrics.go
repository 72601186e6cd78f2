package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "photoprint"

// Metrics — счётчики витрины. Методы безопасны для nil-получателя.
type Metrics struct {
	photosAccepted    prometheus.Counter
	duplicatesSkipped prometheus.Counter
	uploadsRejected   prometheus.Counter
	photosRemoved     prometheus.Counter
	ordersConfirmed   prometheus.Counter
	orderValue        prometheus.Counter
	activeSessions    prometheus.Gauge
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		photosAccepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "photos_accepted_total",
			Help: "Photos accepted into sessions.",
		}),
		duplicatesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "photos_duplicate_total",
			Help: "Uploaded files skipped as duplicates.",
		}),
		uploadsRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "upload_batches_rejected_total",
			Help: "Upload batches rejected for exceeding the photo limit.",
		}),
		photosRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "photos_removed_total",
			Help: "Photos removed by users.",
		}),
		ordersConfirmed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_confirmed_total",
			Help: "Simulated orders confirmed.",
		}),
		orderValue: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_value_total",
			Help: "Sum of confirmed order totals in catalog currency.",
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_sessions",
			Help: "Sessions currently held in memory.",
		}),
	}
}

func (m *Metrics) PhotosAccepted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.photosAccepted.Add(float64(n))
}

func (m *Metrics) DuplicatesSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.duplicatesSkipped.Add(float64(n))
}

func (m *Metrics) UploadRejected() {
	if m == nil {
		return
	}
	m.uploadsRejected.Inc()
}

func (m *Metrics) PhotoRemoved() {
	if m == nil {
		return
	}
	m.photosRemoved.Inc()
}

func (m *Metrics) OrderConfirmed(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.ordersConfirmed.Inc()
	m.orderValue.Add(total.InexactFloat64())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
