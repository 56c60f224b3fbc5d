package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adamwoolhether/tablero/web/mux"
)

// Metrics counts requests per route and status code and observes their
// latency per route. Routes carry their method, as in "GET /healthz". The collectors are registered on reg, so each registry may be
// given to Metrics only once.
func Metrics(reg prometheus.Registerer, namespace string) mux.Middleware {
	factory := promauto.With(reg)

	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})

	latency := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests, including time queued for Airtable.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"route"})

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			v := mux.GetValues(ctx)
			code := v.StatusCode
			if code == 0 {
				code = http.StatusOK
			}

			requests.WithLabelValues(v.Route, strconv.Itoa(code)).Inc()
			latency.WithLabelValues(v.Route).Observe(time.Since(v.Now).Seconds())

			return err
		}

		return h
	}

	return m
}
