// Package metrics exposes the Airtable request queue to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adamwoolhether/tablero/throttle"
)

const (
	namespace = "tablero"
	subsystem = "throttle"
)

// Throttle records queue activity. It implements [throttle.Observer].
type Throttle struct {
	factory promauto.Factory

	enqueued   prometheus.Counter
	dispatched prometheus.Counter
	completed  *prometheus.CounterVec
	canceled   *prometheus.CounterVec
	queueWait  prometheus.Histogram
	callTime   prometheus.Histogram
}

var _ throttle.Observer = (*Throttle)(nil)

// NewThrottle registers the queue collectors on reg.
func NewThrottle(reg prometheus.Registerer) *Throttle {
	factory := promauto.With(reg)

	return &Throttle{
		factory: factory,
		enqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "enqueued_total",
			Help:      "Airtable calls submitted to the queue.",
		}),
		dispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatched_total",
			Help:      "Airtable calls taken off the queue.",
		}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completed_total",
			Help:      "Airtable calls that ran, by outcome.",
		}, []string{"outcome"}),
		canceled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "canceled_total",
			Help:      "Queued Airtable calls resolved without running, by reason.",
		}, []string{"reason"}),
		queueWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_wait_seconds",
			Help:      "Time Airtable calls spent queued before dispatch.",
			Buckets:   []float64{0, .22, .5, 1, 2, 5, 10, 30},
		}),
		callTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "call_duration_seconds",
			Help:      "Time Airtable calls took once dispatched.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Watch exports the pending count of q as a gauge. The count is read from
// the queue at scrape time, so it is exact even though observer events
// arrive out of lock order. Call it once per registry.
func (t *Throttle) Watch(q *throttle.Queue) {
	t.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pending",
		Help:      "Airtable calls waiting in the queue.",
	}, func() float64 {
		return float64(q.PendingCount())
	})
}

// Enqueued implements [throttle.Observer].
func (t *Throttle) Enqueued(int) {
	t.enqueued.Inc()
}

// Dispatched implements [throttle.Observer].
func (t *Throttle) Dispatched(queued time.Duration) {
	t.dispatched.Inc()
	t.queueWait.Observe(queued.Seconds())
}

// Completed implements [throttle.Observer].
func (t *Throttle) Completed(took time.Duration, err error) {
	t.completed.WithLabelValues(outcome(err)).Inc()
	t.callTime.Observe(took.Seconds())
}

// Canceled implements [throttle.Observer].
func (t *Throttle) Canceled(n int, reason error) {
	t.canceled.WithLabelValues(outcome(reason)).Add(float64(n))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, throttle.ErrQueueCleared):
		return "cleared"
	case errors.Is(err, throttle.ErrClosed):
		return "closed"
	case errors.Is(err, throttle.ErrCanceled):
		return "canceled"
	case errors.Is(err, throttle.ErrContextEnded):
		return "context"
	case errors.Is(err, throttle.ErrTaskPanicked):
		return "panicked"
	default:
		return "error"
	}
}
