package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CredentialIssued("access")
	m.CredentialIssued("access")
	m.CredentialIssued("refresh")
	m.VerifyFailed("revoked")
	m.NewDeviceLogin()

	require.InDelta(t, 2, testutil.ToFloat64(m.credentialsIssued.WithLabelValues("access")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.credentialsIssued.WithLabelValues("refresh")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.verifyFailures.WithLabelValues("revoked")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.newDeviceLogins), 0)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Positive(t, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.CredentialIssued("access")
		m.VerifyFailed("invalid")
		m.NewDeviceLogin()
		m.SingleUseConsumed("reset_password")
		m.SingleUseRejected("expired")
		m.SessionRevoked()
	})
}
