// Package metrics holds the Prometheus collectors for auth outcomes.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry     *prometheus.Registry
	Logins       *prometheus.CounterVec
	Signups      *prometheus.CounterVec
	AccessDenied *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "membersite_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "membersite_signups_total",
			Help: "Signup attempts by outcome",
		}, []string{"outcome"}),
		AccessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "membersite_access_denied_total",
			Help: "Requests turned away by the auth gates",
		}, []string{"reason"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "membersite_validation_rejections_total",
			Help: "Inputs rejected before reaching the store",
		}, []string{"field", "kind"}),
	}
	reg.MustRegister(
		m.Logins, m.Signups, m.AccessDenied, m.Rejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
