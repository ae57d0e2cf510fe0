package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Poller repeatedly collects every configured cluster. Clusters fan out
// concurrently within one pass; each cluster has its own client, so no two
// in-flight fetches ever target the same cluster.
type Poller struct {
	collectors []*Collector
	interval   time.Duration
	logger     zerolog.Logger
}

// NewPoller creates the polling driver.
func NewPoller(collectors []*Collector, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		collectors: collectors,
		interval:   interval,
		logger:     logger.With().Str("component", "poller").Logger(),
	}
}

// Run polls immediately and then once per interval until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info().
		Int("clusters", len(p.collectors)).
		Dur("interval", p.interval).
		Msg("starting polling loop")

	p.collectAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("polling loop stopped")
			return
		case <-ticker.C:
			p.collectAll(ctx)
		}
	}
}

func (p *Poller) collectAll(ctx context.Context) {
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range p.collectors {
		c := c
		g.Go(func() error {
			c.Collect(ctx)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Debug().Dur("duration", time.Since(start)).Msg("collection pass complete")
}
