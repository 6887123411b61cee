package region

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/upnepa/gridlog/core/model"
	"github.com/upnepa/gridlog/core/store"
)

type needle struct {
	text     string
	regionID string
}

// Resolver maps free-text locations to region ids by substring matching
// against every region's keywords and state names. The table is immutable
// once built, so a Resolver is safe for concurrent readers.
type Resolver struct {
	table []needle
}

// NewResolver builds the lookup table from the given profiles. Needles are
// lowercased and ordered longest first so a specific multi-word match like
// "victoria island" beats a short generic one contained in it.
func NewResolver(regions []model.RegionProfile) *Resolver {
	var table []needle
	for _, r := range regions {
		for _, k := range r.Keywords {
			table = append(table, needle{strings.ToLower(k), r.ID})
		}
		for _, s := range r.States {
			table = append(table, needle{strings.ToLower(s), r.ID})
		}
	}
	sort.SliceStable(table, func(i, j int) bool {
		return len(table[i].text) > len(table[j].text)
	})
	return &Resolver{table: table}
}

// Resolve returns the region id for the first needle contained in location,
// or "" when location is empty or nothing matches. A miss is not an error.
func (r *Resolver) Resolve(location string) string {
	if location == "" {
		return ""
	}
	loc := strings.ToLower(location)
	for _, n := range r.table {
		if strings.Contains(loc, n.text) {
			return n.regionID
		}
	}
	return ""
}

// Cache holds the process-wide resolver. It starts empty and is replaced
// wholesale by Rebuild whenever the region catalog changes; readers always
// see a complete table.
type Cache struct {
	ptr atomic.Pointer[Resolver]
}

// NewCache returns a cache whose resolver matches nothing until the first
// Rebuild.
func NewCache() *Cache {
	c := &Cache{}
	c.ptr.Store(NewResolver(nil))
	return c
}

// Rebuild reloads the catalog and swaps in a freshly built resolver.
func (c *Cache) Rebuild(ctx context.Context, catalog store.RegionCatalog) error {
	regions, err := catalog.List(ctx)
	if err != nil {
		return err
	}
	c.ptr.Store(NewResolver(regions))
	return nil
}

// Resolve delegates to the current resolver.
func (c *Cache) Resolve(location string) string {
	return c.ptr.Load().Resolve(location)
}
