package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/cpi/internal/storage"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, sess.cfg.Retention.RefreshLogDays)
}

// executeWithStore prunes a provided store (for testing). --older-than
// overrides retentionDays.
func (c *PruneCommand) executeWithStore(store *storage.SQLiteStore, retentionDays int) error {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value: %w", err)
		}
		retention = d
	}
	if retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	cutoff := time.Now().Add(-retention)

	ctx := context.Background()
	var (
		n   int64
		err error
	)
	if c.DryRun {
		n, err = store.CountPrunable(ctx, cutoff)
	} else {
		n, err = store.PruneRefreshes(ctx, cutoff)
	}
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"dry_run":    c.DryRun,
			"older_than": formatDurationHuman(retention),
			"refreshes":  n,
		})
	}

	if c.DryRun {
		fmt.Printf("Would prune %s refresh log entries older than %s\n", formatNumber(n), formatDurationHuman(retention))
		return nil
	}
	fmt.Printf("Pruned %s refresh log entries older than %s\n", formatNumber(n), formatDurationHuman(retention))
	return nil
}
