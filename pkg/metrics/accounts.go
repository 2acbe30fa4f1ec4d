package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Account lifecycle events.
const (
	EventRegistered      = "registered"
	EventConfirmed       = "confirmed"
	EventConfirmResent   = "confirmation_resent"
	EventLoginSucceeded  = "login_succeeded"
	EventLoginFailed     = "login_failed"
	EventLoginBlocked    = "login_blocked"
	EventProfileUpdated  = "profile_updated"
	EventPasswordChanged = "password_changed"
	EventResetRequested  = "password_reset_requested"
	EventResetCompleted  = "password_reset_completed"
	EventDeleted         = "deleted"
)

// AccountMetrics records account workflow outcomes and mail delivery.
type AccountMetrics struct {
	events       *prometheus.CounterVec
	mailDuration *prometheus.HistogramVec
	mailFailure  *prometheus.CounterVec
}

// NewAccountMetrics registers the account metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewAccountMetrics(reg prometheus.Registerer) *AccountMetrics {
	if reg == nil {
		return &AccountMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_events_total",
		Help: "Account lifecycle events by kind.",
	}, []string{"event"})
	mailDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "account_mail_duration_seconds",
		Help:    "Time spent handing account emails to the relay.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	mailFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_mail_failures_total",
		Help: "Account emails the relay refused.",
	}, []string{"kind"})
	reg.MustRegister(events, mailDuration, mailFailure)
	return &AccountMetrics{
		events:       events,
		mailDuration: mailDuration,
		mailFailure:  mailFailure,
	}
}

// Inc counts one occurrence of event.
func (m *AccountMetrics) Inc(event string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(event)).Inc()
}

// ObserveMail records a delivery attempt of the given kind.
func (m *AccountMetrics) ObserveMail(kind string, duration time.Duration, err error) {
	if m == nil || m.mailDuration == nil {
		return
	}
	kind = normalizeLabel(kind)
	m.mailDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		m.mailFailure.WithLabelValues(kind).Inc()
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
