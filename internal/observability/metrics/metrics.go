package metrics

import "github.com/prometheus/client_golang/prometheus"

// RequestMetrics exposes counters/histograms for the service request flow.
type RequestMetrics struct {
	createTotal   *prometheus.CounterVec
	createLatency prometheus.Histogram
}

func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	m := &RequestMetrics{
		createTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raccordement",
			Subsystem: "requests",
			Name:      "create_total",
			Help:      "Total service request creations",
		}, []string{"outcome"}),
		createLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "raccordement",
			Subsystem: "requests",
			Name:      "create_seconds",
			Help:      "Latency of service request creation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createTotal, m.createLatency)
	return m
}

func (m *RequestMetrics) ObserveCreate(outcome string) {
	if m == nil {
		return
	}
	m.createTotal.WithLabelValues(outcome).Inc()
}

func (m *RequestMetrics) ObserveCreateLatency(seconds float64) {
	if m == nil {
		return
	}
	m.createLatency.Observe(seconds)
}

// WizardMetrics tracks wizard state-machine transitions.
type WizardMetrics struct {
	submitTotal  *prometheus.CounterVec
	confirmTotal *prometheus.CounterVec
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		submitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raccordement",
			Subsystem: "wizard",
			Name:      "submit_total",
			Help:      "Wizard submit attempts by outcome",
		}, []string{"outcome"}),
		confirmTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raccordement",
			Subsystem: "wizard",
			Name:      "confirm_total",
			Help:      "Wizard confirmations by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submitTotal, m.confirmTotal)
	return m
}

func (m *WizardMetrics) ObserveSubmit(outcome string) {
	if m == nil {
		return
	}
	m.submitTotal.WithLabelValues(outcome).Inc()
}

func (m *WizardMetrics) ObserveConfirm(outcome string) {
	if m == nil {
		return
	}
	m.confirmTotal.WithLabelValues(outcome).Inc()
}

// PaymentMetrics tracks payment attempts and their terminal outcomes.
type PaymentMetrics struct {
	attemptTotal    *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	m := &PaymentMetrics{
		attemptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raccordement",
			Subsystem: "payments",
			Name:      "attempt_total",
			Help:      "Payment attempts by outcome and error code",
		}, []string{"outcome", "code"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raccordement",
			Subsystem: "payments",
			Name:      "provider_seconds",
			Help:      "Latency of payment provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptTotal, m.providerLatency)
	return m
}

func (m *PaymentMetrics) ObserveAttempt(outcome, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "none"
	}
	m.attemptTotal.WithLabelValues(outcome, code).Inc()
}

func (m *PaymentMetrics) ObserveProviderLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(operation).Observe(seconds)
}
