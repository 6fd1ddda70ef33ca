package gettext

import (
	"slices"
	"sync"

	"github.com/sabiwara/gettext/internal/telemetry"
	"github.com/sabiwara/gettext/po"
)

// Accumulator collects the entries discovered during a build, keyed by
// destination catalog path. Record is safe for concurrent use; a single
// lock guards the whole table since contention is low and entries are
// small. The Accumulator lives exactly as long as one extraction session.
type Accumulator struct {
	mu    sync.Mutex
	table map[string]*po.Catalog
	index map[string]map[string]*po.Entry
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.Reset()
	return a
}

// Reset clears everything recorded so far. Idempotent.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = make(map[string]*po.Catalog)
	a.index = make(map[string]map[string]*po.Entry)
}

// Record inserts entry into the catalog being built for path. When an
// entry with the same message identity was already recorded at that path,
// the new entry's references are appended to the existing entry in
// arrival order and every other field of the first occurrence wins.
func (a *Accumulator) Record(path string, entry *po.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	catalog, ok := a.table[path]
	if !ok {
		catalog = &po.Catalog{}
		a.table[path] = catalog
		a.index[path] = make(map[string]*po.Entry)
	}

	key := entry.Key()
	if existing, seen := a.index[path][key]; seen {
		existing.References = append(existing.References, slices.Clone(entry.References)...)
	} else {
		clone := entry.Clone()
		catalog.Entries = append(catalog.Entries, clone)
		a.index[path][key] = clone
	}

	telemetry.MessagesRecorded.WithLabelValues(path).Inc()
}

// Snapshot returns a deep copy of everything recorded so far, keyed by
// destination path, without clearing state.
func (a *Accumulator) Snapshot() map[string]*po.Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make(map[string]*po.Catalog, len(a.table))
	for path, catalog := range a.table {
		snapshot[path] = catalog.Clone()
	}
	return snapshot
}
