// Package metrics owns the exporter's gauges and the HTTP server that
// exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/patroni-exporter/internal/patroni"
)

// Sink is the fixed set of gauges the collectors write into. Values are
// keyed by label tuple and overwritten on every collection cycle. Label
// tuples for retired nodes are never removed; cardinality grows with every
// node name observed over the process lifetime.
type Sink struct {
	clusterStatus *prometheus.GaugeVec
	nodeLag       *prometheus.GaugeVec
	nodeState     *prometheus.GaugeVec
	nodeTimeline  *prometheus.GaugeVec
}

// NewSink creates the gauges and registers them on reg.
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		clusterStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "patroni_cluster_status",
			Help: "Cluster status (1 = active, 0 = paused)",
		}, []string{"cluster_name"}),
		nodeLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "patroni_node_lag",
			Help: "Replication lag for a node in the cluster",
		}, []string{"cluster_name", "node_name", "node_role"}),
		nodeState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "patroni_node_state",
			Help: "State of the node (1 = running, 0 = not running)",
		}, []string{"cluster_name", "node_name", "node_role"}),
		nodeTimeline: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "patroni_node_timeline",
			Help: "PostgreSQL timeline the node is on",
		}, []string{"cluster_name", "node_name", "node_role"}),
	}

	reg.MustRegister(s)
	return s
}

// Describe implements prometheus.Collector.
func (s *Sink) Describe(ch chan<- *prometheus.Desc) {
	s.clusterStatus.Describe(ch)
	s.nodeLag.Describe(ch)
	s.nodeState.Describe(ch)
	s.nodeTimeline.Describe(ch)
}

// Collect implements prometheus.Collector.
func (s *Sink) Collect(ch chan<- prometheus.Metric) {
	s.clusterStatus.Collect(ch)
	s.nodeLag.Collect(ch)
	s.nodeState.Collect(ch)
	s.nodeTimeline.Collect(ch)
}

// SetClusterStatus records whether a cluster is active (true) or paused.
func (s *Sink) SetClusterStatus(cluster string, active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	s.clusterStatus.WithLabelValues(cluster).Set(v)
}

// SetNodeLag records a member's replication lag.
func (s *Sink) SetNodeLag(cluster, node string, role patroni.NodeRole, lag int64) {
	s.nodeLag.WithLabelValues(cluster, node, string(role)).Set(float64(lag))
}

// SetNodeState records whether a member is running.
func (s *Sink) SetNodeState(cluster, node string, role patroni.NodeRole, running bool) {
	v := 0.0
	if running {
		v = 1.0
	}
	s.nodeState.WithLabelValues(cluster, node, string(role)).Set(v)
}

// SetNodeTimeline records the timeline a member is on.
func (s *Sink) SetNodeTimeline(cluster, node string, role patroni.NodeRole, timeline int64) {
	s.nodeTimeline.WithLabelValues(cluster, node, string(role)).Set(float64(timeline))
}
