package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records cart activity and order commits.
type CheckoutMetrics struct {
	cartMutations  *prometheus.CounterVec
	commits        prometheus.Counter
	commitFailures *prometheus.CounterVec
	orderTotal     prometheus.Histogram
	commitDuration prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by kind.",
	}, []string{"kind"})
	commits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_commits_total",
		Help: "Orders committed through checkout.",
	})
	commitFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commit_failures_total",
		Help: "Rejected or failed commit attempts by error code.",
	}, []string{"code"})
	orderTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_total_amount",
		Help:    "Committed order totals in major currency units.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
	})
	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Time spent authorizing and recording an order.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, commits, commitFailures, orderTotal, commitDuration)
	return &CheckoutMetrics{
		cartMutations:  cartMutations,
		commits:        commits,
		commitFailures: commitFailures,
		orderTotal:     orderTotal,
		commitDuration: commitDuration,
	}
}

// IncCartMutation counts one cart mutation of the given kind.
func (c *CheckoutMetrics) IncCartMutation(kind string) {
	if c == nil || c.cartMutations == nil {
		return
	}
	c.cartMutations.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveCommit records a successful commit.
func (c *CheckoutMetrics) ObserveCommit(totalCents int64, duration time.Duration) {
	if c == nil || c.commits == nil {
		return
	}
	c.commits.Inc()
	c.orderTotal.Observe(float64(totalCents) / 100)
	c.commitDuration.Observe(duration.Seconds())
}

// IncCommitFailure counts a commit attempt rejected with code.
func (c *CheckoutMetrics) IncCommitFailure(code string) {
	if c == nil || c.commitFailures == nil {
		return
	}
	c.commitFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
