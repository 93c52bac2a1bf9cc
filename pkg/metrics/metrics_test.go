package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	ChatRequests.WithLabelValues("ok").Inc()
	Provisioning.WithLabelValues("created").Inc()

	require.Equal(t, 1.0, testutil.ToFloat64(ChatRequests.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(Provisioning.WithLabelValues("created")))

	// second registration on the same registry must fail
	require.Panics(t, func() { RegisterCollectors(reg) })
}
