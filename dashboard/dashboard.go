// Package dashboard assembles the map pages of the waste valorization
// study: company markers, residual energy potential and energy balance per
// canton.
package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paulmach/orb"
	"github.com/royalcat/cantonmap/config"
	"github.com/royalcat/cantonmap/dataset"
	"github.com/royalcat/cantonmap/regionindex"
	"github.com/royalcat/cantonmap/resolver"
	"golang.org/x/text/cases"
)

var ErrNotFound = errors.New("not found")

type Dashboard struct {
	Map config.MapConfig

	Index     *regionindex.Index
	Resolver  *resolver.Resolver
	Companies *Companies
	Potential *Potential
	Balance   *Balance

	cantonKeys map[string]string
}

// New builds every page from loaded data. The result is read-only.
func New(ds *dataset.Dataset, cfg config.Config, schemes config.Schemes, log *slog.Logger) (*Dashboard, error) {
	index, err := regionindex.Build(ds.Boundaries, regionindex.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("build region index: %w", err)
	}

	potentialIDs := make([]string, 0, len(ds.Potentials))
	for _, p := range ds.Potentials {
		potentialIDs = append(potentialIDs, p.Canton)
	}
	dataset.CheckJoin(log, "potential", index, potentialIDs)

	balanceIDs := make([]string, 0, len(ds.Balances))
	for _, b := range ds.Balances {
		balanceIDs = append(balanceIDs, b.Canton)
	}
	dataset.CheckJoin(log, "balance", index, balanceIDs)

	d := &Dashboard{
		Map:      cfg.Map,
		Index:    index,
		Resolver: resolver.New(index, resolver.WithTolerance(cfg.Tolerance), resolver.WithLogger(log)),
		Companies: NewCompanies(
			NewDirectory(ds.Companies), ds.CompanyHeader, cfg.Groups, cfg.DefaultMarker, cfg.Tolerance,
		),
		Potential: NewPotential(index, schemes.Potential, schemes.PotentialPalette, ds.Potentials, log),
		Balance:   NewBalance(index, schemes.Balance, schemes.BalancePalette, ds.Balances, log),
	}
	d.cantonKeys = cantonKeys(index)

	log.Info("Dashboard ready",
		"regions", index.Len(),
		"companies", d.Companies.Len(),
		"tolerance", cfg.Tolerance,
	)
	return d, nil
}

func cantonKeys(index *regionindex.Index) map[string]string {
	fold := cases.Fold()
	keys := make(map[string]string, index.Len())
	for r := range index.All() {
		keys[fold.String(r.ID)] = r.ID
	}
	return keys
}

// Canton matches a typed canton query against the known identifiers,
// ignoring case and surrounding spaces. Unknown queries are returned trimmed.
func (d *Dashboard) Canton(query string) string {
	query = strings.TrimSpace(query)
	if id, ok := d.cantonKeys[cases.Fold().String(query)]; ok {
		return id
	}
	return query
}

// Select picks the canton shown in the detail panel: a click that lands on a
// canton wins over the typed query.
func (d *Dashboard) Select(query string, click *orb.Point) string {
	if click != nil {
		if id, ok := d.Resolver.ResolveWithin(*click, d.Resolver.Tolerance()); ok {
			return id
		}
	}
	return d.Canton(query)
}
