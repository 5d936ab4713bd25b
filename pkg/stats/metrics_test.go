package stats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mostrop2p/mostro-go/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := stats.NewClientMetrics(reg)
	require.NoError(t, err)

	m.RequestDone("new-order", stats.OutcomeResolved)
	m.RequestDone("new-order", stats.OutcomeTimeout)
	m.SetPending(3)
	m.EventReceived("1059")
	m.EventDropped("undecryptable")
	m.EventPublished()

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 6, count)

	_, err = stats.NewClientMetrics(reg)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "stats")
	require.NoError(t, stats.DumpPrometheus(reg, path))
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), "mostro_client_requests_total")
}

func TestNilClientMetrics(t *testing.T) {
	var m *stats.ClientMetrics
	require.NotPanics(t, func() {
		m.RequestDone("release", stats.OutcomeFailed)
		m.SetPending(1)
		m.EventReceived("38383")
		m.EventDropped("decode")
		m.EventPublished()
	})
}
