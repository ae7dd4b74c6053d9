// Package metrics содержит счётчики оформления заказов для Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry агрегирует метрики сервиса фудкорта.
type Registry struct {
	reg *prometheus.Registry

	Checkouts          prometheus.Counter
	CheckoutFailures   prometheus.Counter
	InsufficientStock  prometheus.Counter
	VouchersRevoked    prometheus.Counter
	ResyncFailures     prometheus.Counter
	CheckoutLatencySec prometheus.Histogram
}

// NewRegistry создаёт и регистрирует метрики сервиса.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	checkouts := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcourt_checkouts_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcourt_checkout_failures_total"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcourt_insufficient_stock_total"})
	revoked := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcourt_vouchers_revoked_total"})
	resyncFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodcourt_availability_resync_failures_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodcourt_checkout_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(checkouts, failures, insufficient, revoked, resyncFailures, latency)

	return &Registry{
		reg:                r,
		Checkouts:          checkouts,
		CheckoutFailures:   failures,
		InsufficientStock:  insufficient,
		VouchersRevoked:    revoked,
		ResyncFailures:     resyncFailures,
		CheckoutLatencySec: latency,
	}
}

// Handler возвращает HTTP-обработчик выгрузки метрик.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
