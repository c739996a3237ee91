package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// BarnLister fetches the full barn list from wherever barns are stored.
// The remote barn API client satisfies it.
type BarnLister interface {
	List(ctx context.Context) ([]Barn, error)
}

// Directory owns the barn list shown by the application.
// The list is only ever replaced wholesale by Refresh; nothing edits it in
// place, so readers always see a consistent snapshot.
type Directory struct {
	source BarnLister

	mu          sync.RWMutex
	barns       []Barn // sorted by BarnNumber
	refreshedAt time.Time
}

// NewDirectory creates an empty directory backed by source.
// Call Refresh to load the initial list.
func NewDirectory(source BarnLister) *Directory {
	return &Directory{source: source}
}

// Refresh reloads the authoritative barn list.
// On failure the previous snapshot is kept.
func (d *Directory) Refresh(ctx context.Context) error {
	barns, err := d.source.List(ctx)
	if err != nil {
		return serr.Wrap(err, "failed to refresh barn list")
	}

	sorted := make([]Barn, len(barns))
	copy(sorted, barns)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BarnNumber < sorted[j].BarnNumber
	})

	d.mu.Lock()
	d.barns = sorted
	d.refreshedAt = time.Now()
	d.mu.Unlock()

	logger.Debug("Barn list refreshed", "count", len(sorted))
	return nil
}

// Barns returns a copy of the current snapshot ordered by barn number
func (d *Directory) Barns() []Barn {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Barn, len(d.barns))
	copy(out, d.barns)
	return out
}

// Find looks up a barn by its API identifier
func (d *Directory) Find(id int64) (Barn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, b := range d.barns {
		if b.ID == id {
			return b, true
		}
	}
	return Barn{}, false
}

// RefreshedAt reports when the snapshot was last loaded (zero if never)
func (d *Directory) RefreshedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshedAt
}

// NextAvailableBarnNumber returns the smallest positive barn number not
// used by any barn in the snapshot. Gaps left by deleted barns are reused.
func (d *Directory) NextAvailableBarnNumber() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	next := 1
	for _, b := range d.barns { // sorted ascending
		if b.BarnNumber == next {
			next++
		} else if b.BarnNumber > next {
			break
		}
	}
	return next
}

// IsBarnNumberUnique reports whether no barn in the snapshot uses number
func (d *Directory) IsBarnNumberUnique(number int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	idx := sort.Search(len(d.barns), func(i int) bool {
		return d.barns[i].BarnNumber >= number
	})
	return idx == len(d.barns) || d.barns[idx].BarnNumber != number
}
