// Package metrics instruments the binding pipeline with Prometheus request
// counters and latency histograms, modeled on the reference project's
// per-package promauto metrics.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Collector holds the Prometheus metrics a Capability wires into a
// Transport. NewCollector registers them against reg; pass
// prometheus.DefaultRegisterer for the global registry.
type Collector struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewCollector registers the httpbind request metrics against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "httpbind_request_duration_seconds",
				Help:    "Duration of bound HTTP operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"config_key", "status"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpbind_requests_total",
				Help: "Total bound HTTP operations by outcome",
			},
			[]string{"config_key", "status"},
		),
	}
}

// Capability wraps Components.Transport so every invocation's duration and
// outcome status are recorded, regardless of which Transport is installed.
func (c *Collector) Capability() httpbind.Capability {
	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		inner := comps.Transport
		comps.Transport = httpbind.TransportFunc(func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			start := time.Now()
			configKey := configKeyOf(req)

			resp, err := inner.Execute(ctx, req, opts)
			elapsed := time.Since(start).Seconds()

			status := "error"
			if err == nil && resp != nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			c.duration.WithLabelValues(configKey, status).Observe(elapsed)
			c.requests.WithLabelValues(configKey, status).Inc()
			return resp, err
		})
		return nil
	})
}

func configKeyOf(req *httpbind.Request) string {
	if req.Template != nil && req.Template.Metadata != nil {
		return req.Template.Metadata.ConfigKey
	}
	return ""
}
