package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead-submission pipeline.
type LeadMetrics struct {
	submissions   *prometheus.CounterVec
	tokenFetches  *prometheus.CounterVec
	crmForward    *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submissions by outcome",
		}, []string{"outcome"}),
		tokenFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "leads",
			Name:      "token_fetch_total",
			Help:      "Zoho access credential lookups by source and status",
		}, []string{"source", "status"}),
		crmForward: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "leads",
			Name:      "crm_forward_seconds",
			Help:      "Latency of Bigin contact creation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "leads",
			Name:      "failure_notifications_total",
			Help:      "Operator failure notifications by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.tokenFetches, m.crmForward, m.notifications)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveTokenFetch(source, status string) {
	if m == nil {
		return
	}
	m.tokenFetches.WithLabelValues(source, status).Inc()
}

func (m *LeadMetrics) ObserveCRMForward(status string, seconds float64) {
	if m == nil {
		return
	}
	m.crmForward.WithLabelValues(status).Observe(seconds)
}

func (m *LeadMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(status).Inc()
}
