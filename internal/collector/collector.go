// Package collector turns Patroni cluster status into gauge updates and
// drives the polling loop.
package collector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/patroni-exporter/internal/humanize"
	"github.com/edvin/patroni-exporter/internal/metrics"
	"github.com/edvin/patroni-exporter/internal/patroni"
)

// Collector collects metrics for one cluster. A fetch failure skips the
// cycle: previously written gauge values stay at their last-known state
// until a later successful cycle overwrites them.
type Collector struct {
	cluster string
	client  *patroni.Client
	sink    *metrics.Sink
	logger  zerolog.Logger
}

// New creates a collector for one cluster.
func New(client *patroni.Client, sink *metrics.Sink, logger zerolog.Logger) *Collector {
	return &Collector{
		cluster: client.ClusterName(),
		client:  client,
		sink:    sink,
		logger:  logger.With().Str("component", "collector").Str("cluster", client.ClusterName()).Logger(),
	}
}

// Collect runs one collection cycle for the cluster. Errors are logged,
// never propagated; the driver treats every cycle the same.
func (c *Collector) Collect(ctx context.Context) {
	status, err := c.client.Cluster(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to fetch cluster status")
		return
	}

	c.sink.SetClusterStatus(c.cluster, !status.Paused)

	for _, member := range status.Members {
		role, err := patroni.ParseNodeRole(member.Role)
		if err != nil {
			c.logger.Error().
				Str("member", member.Name).
				Str("role", member.Role).
				Msg("skipping member with unknown role")
			continue
		}

		c.sink.SetNodeLag(c.cluster, member.Name, role, member.Lag)
		c.sink.SetNodeState(c.cluster, member.Name, role, member.State == patroni.StateRunning)
		c.sink.SetNodeTimeline(c.cluster, member.Name, role, member.Timeline)

		c.logger.Debug().
			Str("member", member.Name).
			Str("role", string(role)).
			Str("state", member.State).
			Str("lag", humanize.Bytes(uint64(max(member.Lag, 0)))).
			Msg("collected member status")
	}
}
