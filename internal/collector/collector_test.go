package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/patroni-exporter/internal/metrics"
	"github.com/edvin/patroni-exporter/internal/patroni"
)

func newSink(t *testing.T) (*metrics.Sink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return metrics.NewSink(reg), reg
}

func newCollector(t *testing.T, cluster, url string, sink *metrics.Sink) *Collector {
	t.Helper()
	client := patroni.NewClient(cluster, url, 2*time.Second, 0, zerolog.Nop())
	return New(client, sink, zerolog.Nop())
}

func statusServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCollect_HealthyCluster(t *testing.T) {
	srv := statusServer(t, `{
		"paused": false,
		"members": [
			{"name": "pg1-a", "role": "leader", "state": "running", "timeline": 3, "lag": 0},
			{"name": "pg1-b", "role": "replica", "state": "running", "timeline": 3, "lag": 120}
		]
	}`)

	sink, reg := newSink(t)
	c := newCollector(t, "pg1", srv.URL, sink)
	c.Collect(context.Background())

	expected := `
# HELP patroni_cluster_status Cluster status (1 = active, 0 = paused)
# TYPE patroni_cluster_status gauge
patroni_cluster_status{cluster_name="pg1"} 1
# HELP patroni_node_lag Replication lag for a node in the cluster
# TYPE patroni_node_lag gauge
patroni_node_lag{cluster_name="pg1",node_name="pg1-a",node_role="LEADER"} 0
patroni_node_lag{cluster_name="pg1",node_name="pg1-b",node_role="REPLICA"} 120
# HELP patroni_node_state State of the node (1 = running, 0 = not running)
# TYPE patroni_node_state gauge
patroni_node_state{cluster_name="pg1",node_name="pg1-a",node_role="LEADER"} 1
patroni_node_state{cluster_name="pg1",node_name="pg1-b",node_role="REPLICA"} 1
# HELP patroni_node_timeline PostgreSQL timeline the node is on
# TYPE patroni_node_timeline gauge
patroni_node_timeline{cluster_name="pg1",node_name="pg1-a",node_role="LEADER"} 3
patroni_node_timeline{cluster_name="pg1",node_name="pg1-b",node_role="REPLICA"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestCollect_OneUpdatePerMember(t *testing.T) {
	srv := statusServer(t, `{
		"paused": false,
		"members": [
			{"name": "pg1-a", "role": "leader", "state": "running"},
			{"name": "pg1-b", "role": "replica", "state": "running"},
			{"name": "pg1-c", "role": "replica", "state": "streaming"},
			{"name": "pg1-d", "role": "standby_leader", "state": "running"}
		]
	}`)

	sink, _ := newSink(t)
	c := newCollector(t, "pg1", srv.URL, sink)
	c.Collect(context.Background())

	assert.Equal(t, 4, testutil.CollectAndCount(sink, "patroni_node_state"))
	assert.Equal(t, 4, testutil.CollectAndCount(sink, "patroni_node_lag"))
}

func TestCollect_PausedCluster(t *testing.T) {
	pausedSrv := statusServer(t, `{"paused": true, "members": []}`)
	activeSrv := statusServer(t, `{"paused": false, "members": []}`)

	sink, reg := newSink(t)
	newCollector(t, "pgA", pausedSrv.URL, sink).Collect(context.Background())
	newCollector(t, "pgB", activeSrv.URL, sink).Collect(context.Background())

	expected := `
# HELP patroni_cluster_status Cluster status (1 = active, 0 = paused)
# TYPE patroni_cluster_status gauge
patroni_cluster_status{cluster_name="pgA"} 0
patroni_cluster_status{cluster_name="pgB"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "patroni_cluster_status"))
}

func TestCollect_NonRunningState(t *testing.T) {
	srv := statusServer(t, `{
		"paused": false,
		"members": [{"name": "pg1-b", "role": "replica", "state": "starting", "lag": 9}]
	}`)

	sink, reg := newSink(t)
	newCollector(t, "pg1", srv.URL, sink).Collect(context.Background())

	expected := `
# HELP patroni_node_state State of the node (1 = running, 0 = not running)
# TYPE patroni_node_state gauge
patroni_node_state{cluster_name="pg1",node_name="pg1-b",node_role="REPLICA"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "patroni_node_state"))
}

func TestCollect_UnknownRoleSkipsMemberOnly(t *testing.T) {
	srv := statusServer(t, `{
		"paused": false,
		"members": [
			{"name": "pg1-a", "role": "archon", "state": "running"},
			{"name": "pg1-b", "role": "replica", "state": "running", "lag": 7}
		]
	}`)

	sink, reg := newSink(t)
	newCollector(t, "pg1", srv.URL, sink).Collect(context.Background())

	// The unclassifiable member contributes nothing; its sibling and the
	// cluster gauge still update.
	expected := `
# HELP patroni_cluster_status Cluster status (1 = active, 0 = paused)
# TYPE patroni_cluster_status gauge
patroni_cluster_status{cluster_name="pg1"} 1
# HELP patroni_node_lag Replication lag for a node in the cluster
# TYPE patroni_node_lag gauge
patroni_node_lag{cluster_name="pg1",node_name="pg1-b",node_role="REPLICA"} 7
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"patroni_cluster_status", "patroni_node_lag"))
	assert.Equal(t, 1, testutil.CollectAndCount(sink, "patroni_node_state"))
}

func TestCollect_FetchFailureLeavesValuesUnchanged(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"paused": false, "members": [{"name": "pg2-a", "role": "leader", "state": "running", "lag": 0, "timeline": 5}]}`))
	}))
	defer srv.Close()

	sink, reg := newSink(t)
	c := newCollector(t, "pg2", srv.URL, sink)
	c.Collect(context.Background())

	expected := `
# HELP patroni_cluster_status Cluster status (1 = active, 0 = paused)
# TYPE patroni_cluster_status gauge
patroni_cluster_status{cluster_name="pg2"} 1
# HELP patroni_node_state State of the node (1 = running, 0 = not running)
# TYPE patroni_node_state gauge
patroni_node_state{cluster_name="pg2",node_name="pg2-a",node_role="LEADER"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"patroni_cluster_status", "patroni_node_state"))

	// Backend goes down; the next cycle is a no-op and stale values persist.
	healthy = false
	c.Collect(context.Background())
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"patroni_cluster_status", "patroni_node_state"))
}

func TestCollect_FetchFailureCreatesNoMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	sink, reg := newSink(t)
	newCollector(t, "pg2", srv.URL, sink).Collect(context.Background())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
