package products

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source produces installed-product records from one host store
type Source interface {
	Name() string
	Records(ctx context.Context) ([]Record, error)
}

// Registry is a read model over the records reported by its sources.
// Lookups are case-insensitive on the product id.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	records []Record
	byID    map[string]int
}

// NewRegistry creates a registry over the given sources. Call Refresh to
// populate it.
func NewRegistry(sources ...Source) *Registry {
	return &Registry{
		sources: sources,
		byID:    make(map[string]int),
	}
}

// NewRegistryFromRecords creates a registry holding a fixed set of records
func NewRegistryFromRecords(records []Record) *Registry {
	r := NewRegistry()
	r.load(records)
	return r
}

// Refresh rescans every source concurrently. A failing source is logged
// and skipped; records keep source order.
func (r *Registry) Refresh(ctx context.Context) error {
	results := make([][]Record, len(r.sources))
	g, gCtx := errgroup.WithContext(ctx)

	for i, src := range r.sources {
		g.Go(func() error {
			recs, err := src.Records(gCtx)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				logrus.Warnf("Skipping product source %s: %v", src.Name(), err)
				return nil
			}
			logrus.Debugf("Product source %s reported %d records", src.Name(), len(recs))
			results[i] = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	var all []Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	r.load(all)
	return nil
}

func (r *Registry) load(records []Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = make([]Record, 0, len(records))
	r.byID = make(map[string]int, len(records))
	for _, rec := range records {
		key := strings.ToLower(rec.ID)
		if key == "" {
			continue
		}
		if i, ok := r.byID[key]; ok {
			// a standalone entry wins over an upgrade node with the same id
			if r.records[i].IsUpgradeNode && !rec.IsUpgradeNode {
				r.records[i] = rec
			}
			continue
		}
		r.byID[key] = len(r.records)
		r.records = append(r.records, rec)
	}
}

// Get returns the record with the given id
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[strings.ToLower(id)]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// IsInstalled reports whether a record with the given id exists
func (r *Registry) IsInstalled(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Is64 reports the bitness of an installed product
func (r *Registry) Is64(id string) (is64 bool, ok bool) {
	rec, ok := r.Get(id)
	return rec.Is64, ok
}

// All returns every record, including upgrade nodes, sorted by id
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].ID) < strings.ToLower(out[j].ID)
	})
	return out
}

// Products returns the logical products, skipping upgrade-chain nodes
func (r *Registry) Products() []Record {
	var out []Record
	for _, rec := range r.All() {
		if !rec.IsUpgradeNode {
			out = append(out, rec)
		}
	}
	return out
}
