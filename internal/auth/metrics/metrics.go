// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "claimdesk_auth"

// Metrics is safe to use as a nil pointer; every method then does nothing.
type Metrics struct {
	credentialsIssued  *prometheus.CounterVec
	verifyFailures     *prometheus.CounterVec
	newDeviceLogins    prometheus.Counter
	singleUseConsumed  *prometheus.CounterVec
	singleUseRejected  *prometheus.CounterVec
	sessionRevocations prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		credentialsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credentials_issued_total",
			Help:      "Credentials issued, by type.",
		}, []string{"type"}),
		verifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_failures_total",
			Help:      "Rejected bearer verifications, by reason.",
		}, []string{"reason"}),
		newDeviceLogins: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_device_logins_total",
			Help:      "Logins from a device not seen before for the user.",
		}),
		singleUseConsumed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "single_use_consumed_total",
			Help:      "Reset and invitation tokens successfully consumed, by type.",
		}, []string{"type"}),
		singleUseRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "single_use_rejected_total",
			Help:      "Reset and invitation tokens rejected, by reason.",
		}, []string{"reason"}),
		sessionRevocations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_revocations_total",
			Help:      "Access and refresh credentials revoked.",
		}),
	}
}

func (m *Metrics) CredentialIssued(typ string) {
	if m != nil {
		m.credentialsIssued.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) VerifyFailed(reason string) {
	if m != nil {
		m.verifyFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) NewDeviceLogin() {
	if m != nil {
		m.newDeviceLogins.Inc()
	}
}

func (m *Metrics) SingleUseConsumed(typ string) {
	if m != nil {
		m.singleUseConsumed.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) SingleUseRejected(reason string) {
	if m != nil {
		m.singleUseRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SessionRevoked() {
	if m != nil {
		m.sessionRevocations.Inc()
	}
}
