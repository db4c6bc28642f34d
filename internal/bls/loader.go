package bls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/logger"
)

// Metadata files.
const (
	AreaFile   = "cu.area"
	ItemFile   = "cu.item"
	SeriesFile = "cu.series"
)

// DataFiles lists the observation files of the CPI-U dataset.
var DataFiles = []string{
	"cu.data.0.Current",
	"cu.data.1.AllItems",
	"cu.data.2.Summaries",
	"cu.data.3.AsizeNorthEast",
	"cu.data.4.AsizeNorthCentral",
	"cu.data.5.AsizeSouth",
	"cu.data.6.AsizeWest",
	"cu.data.7.OtherNorthEast",
	"cu.data.8.OtherNorthCentral",
	"cu.data.9.OtherSouth",
	"cu.data.10.OtherWest",
	"cu.data.11.USFoodBeverage",
	"cu.data.12.USHousing",
	"cu.data.13.USApparel",
	"cu.data.14.USTransportation",
	"cu.data.15.USMedical",
	"cu.data.16.USRecreation",
	"cu.data.17.USEducationAndCommunication",
	"cu.data.18.USOtherGoodsAndServices",
	"cu.data.19.PopulationSize",
	"cu.data.20.USCommoditiesServicesSpecial",
}

// DefaultWorkers is the number of data files read at once.
const DefaultWorkers = 4

// Loader reads a full dataset from a Source.
type Loader struct {
	source    Source
	dataFiles []string
	workers   int
}

// Option configures a Loader.
type Option func(*Loader)

// WithDataFiles overrides the list of observation files.
func WithDataFiles(files ...string) Option {
	return func(l *Loader) {
		l.dataFiles = files
	}
}

// WithWorkers sets how many data files are read concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// NewLoader returns a Loader reading from source.
func NewLoader(source Source, opts ...Option) *Loader {
	l := &Loader{
		source:    source,
		dataFiles: DataFiles,
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source returns the source the loader reads from.
func (l *Loader) Source() Source {
	return l.source
}

// Load reads the metadata files and every data file. The metadata files
// are required; a missing data file is logged and skipped, but at least
// one must be present. The same series may appear in several data files;
// repeated rows are passed through and collapse when the catalog is built.
func (l *Loader) Load(ctx context.Context) (*cpi.Records, error) {
	start := time.Now()
	records := &cpi.Records{}

	if err := l.read(ctx, AreaFile, func(r io.Reader) (err error) {
		records.Areas, err = ParseAreas(r)
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.read(ctx, ItemFile, func(r io.Reader) (err error) {
		records.Items, err = ParseItems(r)
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.read(ctx, SeriesFile, func(r io.Reader) (err error) {
		records.Series, err = ParseSeries(r)
		return err
	}); err != nil {
		return nil, err
	}

	results, err := l.readData(ctx)
	if err != nil {
		return nil, err
	}

	var found, skipped int
	for _, res := range results {
		if res.missing {
			logger.Warn("%s: not found at %s, skipping", res.name, l.source)
			continue
		}
		found++
		skipped += res.skipped
		records.Observations = append(records.Observations, res.obs...)
	}
	if found == 0 {
		return nil, fmt.Errorf("no data files found at %s", l.source)
	}
	if skipped > 0 {
		logger.Warn("skipped %d observation rows without a positive value", skipped)
	}

	logger.Info("loaded %d series and %d observations from %s in %v",
		len(records.Series), len(records.Observations), l.source, time.Since(start).Round(time.Millisecond))
	return records, nil
}

func (l *Loader) read(ctx context.Context, name string, parse func(io.Reader) error) error {
	rc, err := l.source.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := parse(rc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

type dataResult struct {
	name    string
	obs     []cpi.ObservationRecord
	skipped int
	missing bool
}

// readData reads the data files with a bounded pool of workers. Results
// keep the order of dataFiles. The first hard error cancels the rest.
func (l *Loader) readData(ctx context.Context) ([]dataResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]dataResult, len(l.dataFiles))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < l.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				name := l.dataFiles[i]
				res := dataResult{name: name}
				err := l.read(ctx, name, func(r io.Reader) (err error) {
					res.obs, res.skipped, err = ParseObservations(name, r)
					return err
				})
				switch {
				case errors.Is(err, fs.ErrNotExist):
					res.missing = true
				case err != nil:
					fail(err)
					continue
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := range l.dataFiles {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
