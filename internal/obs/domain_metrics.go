package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesComputedTotal counts quote computations by outcome.
	QuotesComputedTotal *prometheus.CounterVec
	// RulesAppliedTotal counts rule applications by target kind.
	RulesAppliedTotal *prometheus.CounterVec
	// QuoteDiscountAmount records the total discount granted per quote.
	QuoteDiscountAmount prometheus.Histogram
	// QuoteDuration records quote computation latency in milliseconds.
	QuoteDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises the domain collectors once. Callers
// that never register simply get no-op recording helpers.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesComputedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_computed_total",
			Help:      "Count of quote computations by result.",
		}, []string{"result"}))
		RulesAppliedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_applied_total",
			Help:      "Count of discount rule applications by target kind.",
		}, []string{"target"}))
		QuoteDiscountAmount = register[prometheus.Histogram](reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_discount_amount",
			Help:      "Distribution of total tax-included discount per quote.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}))
		QuoteDuration = register[prometheus.Histogram](reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Quote computation latency in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}))
	})
}

// CountQuote records a quote computation outcome.
func CountQuote(result string) {
	if QuotesComputedTotal != nil {
		QuotesComputedTotal.WithLabelValues(result).Inc()
	}
}

// CountRuleApplied records one rule application by target kind.
func CountRuleApplied(target string) {
	if RulesAppliedTotal != nil {
		RulesAppliedTotal.WithLabelValues(target).Inc()
	}
}

// ObserveQuoteDiscount records the granted discount for one quote.
func ObserveQuoteDiscount(amount float64) {
	if QuoteDiscountAmount != nil {
		QuoteDiscountAmount.Observe(amount)
	}
}

// ObserveQuoteDuration records quote computation latency.
func ObserveQuoteDuration(millis float64) {
	if QuoteDuration != nil {
		QuoteDuration.Observe(millis)
	}
}
