package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/runnerr0/cpi/internal/bls"
	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/logger"
	"github.com/runnerr0/cpi/internal/storage"
)

type refreshResultJSON struct {
	Version      string `json:"version"`
	Source       string `json:"source"`
	Series       int64  `json:"series"`
	Observations int64  `json:"observations"`
	Duration     string `json:"duration"`
}

// Execute implements the go-flags Commander interface for UpdateCommand.
func (c *UpdateCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = sess.cfg.Source.BaseURL
	}
	workers := c.Workers
	if workers <= 0 {
		workers = sess.cfg.Source.Workers
	}
	src := bls.NewHTTPSource(baseURL, sess.cfg.Source.UserAgent, sess.cfg.SourceTimeout())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.executeWithSource(ctx, sess.store, src, workers, sess.cfg.SeriesDefaults())
}

// executeWithSource downloads from src into a provided store (for testing).
func (c *UpdateCommand) executeWithSource(ctx context.Context, store storage.Store, src bls.Source, workers int, defaults cpi.Defaults) error {
	return refreshDataset(ctx, c.globals, store, bls.NewLoader(src, bls.WithWorkers(workers)), defaults)
}

// Execute implements the go-flags Commander interface for ImportCommand.
func (c *ImportCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(context.Background(), sess.store, sess.cfg.SeriesDefaults())
}

// executeWithStore imports into a provided store (for testing).
func (c *ImportCommand) executeWithStore(ctx context.Context, store storage.Store, defaults cpi.Defaults) error {
	info, err := os.Stat(c.Args.Dir)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("import: %s is not a directory", c.Args.Dir)
	}
	return refreshDataset(ctx, c.globals, store, bls.NewLoader(bls.DirSource{Dir: c.Args.Dir}), defaults)
}

// refreshDataset loads a full dataset, checks that it builds a usable
// catalog, and only then replaces the stored copy.
func refreshDataset(ctx context.Context, globals *GlobalFlags, store storage.Store, loader *bls.Loader, defaults cpi.Defaults) error {
	t0 := time.Now()
	logger.Info("loading cpi dataset from %s", loader.Source())

	records, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	// A dataset that cannot be served must not replace one that can.
	snap, err := cpi.NewSnapshot(records, defaults)
	if err != nil {
		return fmt.Errorf("validate dataset: %w", err)
	}
	if _, err := snap.Catalog.Default(); err != nil {
		return fmt.Errorf("validate dataset: %w", err)
	}

	refresh, err := store.ReplaceDataset(ctx, records, loader.Source().String())
	if err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}
	elapsed := time.Since(t0).Round(time.Millisecond)
	logger.Info("stored snapshot %s in %v", refresh.Version, elapsed)

	if globals != nil && globals.JSON {
		return printJSON(refreshResultJSON{
			Version:      refresh.Version,
			Source:       refresh.Source,
			Series:       refresh.SeriesCount,
			Observations: refresh.ObservationCount,
			Duration:     elapsed.String(),
		})
	}

	fmt.Printf("Stored %s series and %s observations from %s (%v)\n",
		formatNumber(refresh.SeriesCount), formatNumber(refresh.ObservationCount), refresh.Source, elapsed)
	fmt.Printf("Snapshot: %s\n", refresh.Version)
	return nil
}
