package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/royalcat/cantonmap/geomodel"
	"github.com/royalcat/cantonmap/regionindex"
	"github.com/sourcegraph/conc/pool"
)

// Paths of the dashboard input files. Empty paths are skipped.
type Paths struct {
	Boundaries string
	Companies  string
	Potential  string
	Balance    string
}

// Dataset is loaded once at startup and only read afterwards.
type Dataset struct {
	Boundaries []regionindex.Boundary
	Companies  []geomodel.Company
	// CompanyHeader is the source header of the companies file.
	CompanyHeader []string
	Potentials    []geomodel.CantonPotential
	Balances      []geomodel.CantonBalance
}

// Load reads all input files concurrently.
func Load(ctx context.Context, paths Paths, log *slog.Logger) (*Dataset, error) {
	ds := &Dataset{}
	start := time.Now()

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()

	if paths.Boundaries != "" {
		p.Go(func(ctx context.Context) error {
			return loadFile(ctx, log, paths.Boundaries, func(r io.Reader) (err error) {
				ds.Boundaries, err = DecodeBoundaries(r)
				return err
			})
		})
	}
	if paths.Companies != "" {
		p.Go(func(ctx context.Context) error {
			return loadFile(ctx, log, paths.Companies, func(r io.Reader) error {
				table, err := DecodeCompanies(r, log)
				ds.CompanyHeader, ds.Companies = table.Header, table.Companies
				return err
			})
		})
	}
	if paths.Potential != "" {
		p.Go(func(ctx context.Context) error {
			return loadFile(ctx, log, paths.Potential, func(r io.Reader) (err error) {
				ds.Potentials, err = DecodePotentials(r)
				return err
			})
		})
	}
	if paths.Balance != "" {
		p.Go(func(ctx context.Context) error {
			return loadFile(ctx, log, paths.Balance, func(r io.Reader) (err error) {
				ds.Balances, err = DecodeBalances(r)
				return err
			})
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	log.Info("Datasets loaded",
		"boundaries", len(ds.Boundaries),
		"companies", len(ds.Companies),
		"potentials", len(ds.Potentials),
		"balances", len(ds.Balances),
		"elapsed", time.Since(start),
	)
	return ds, nil
}

func loadFile(ctx context.Context, log *slog.Logger, name string, decode func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("Loading file", "file", name, "size", humanize.Bytes(fileSize(name)))
	r, err := openReader(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer r.Close()

	if err := decode(r); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// CheckJoin reports identifiers of a numeric dataset that have no boundary.
// Both sides are expected to use the same canton codes; a mismatch usually
// means a different code system in one of the files.
func CheckJoin(log *slog.Logger, dataset string, idx *regionindex.Index, ids []string) []string {
	var unmatched []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
		if _, ok := idx.Lookup(id); !ok {
			unmatched = append(unmatched, id)
		}
	}
	if len(unmatched) > 0 {
		log.Warn("dataset identifiers without boundary", "dataset", dataset, "ids", unmatched)
	}

	for r := range idx.All() {
		if !seen[r.ID] {
			log.Debug("region without data", "dataset", dataset, "id", r.ID)
		}
	}
	return unmatched
}
