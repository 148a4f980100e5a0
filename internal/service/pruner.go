package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/medorder/pkg/logging"
)

type Pruner struct {
	Tokens   TokenStore
	Interval time.Duration
	Now      func() time.Time
}

// PruneOnce deletes blacklist entries whose access token has already expired.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	n, err := p.Tokens.PruneBlacklist(ctx, nowOr(p.Now))
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("blacklist_pruned", "deleted", n)
	return n, nil
}

// Run prunes on every tick until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) {
	if p.Interval <= 0 {
		return
	}
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.PruneOnce(ctx); err != nil {
				logging.FromContext(ctx).Warn("blacklist_prune_failed", "error", err)
			}
		}
	}
}
