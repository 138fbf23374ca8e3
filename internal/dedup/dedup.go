// Run-scoped duplicate tracking keyed by job id.
// Every run starts empty; callers that want cross-run dedup can persist
// Seen() themselves.

package dedup

import (
	mapset "github.com/deckarep/golang-set/v2"
)

type Dedup struct {
	seen mapset.Set[string]
}

func New() *Dedup {
	return &Dedup{
		seen: mapset.NewSet[string](),
	}
}

// Admit returns true the first time an id is seen, false on every repeat.
func (d *Dedup) Admit(id string) bool {
	return d.seen.Add(id)
}

// Count is the number of distinct ids admitted so far.
func (d *Dedup) Count() int {
	return d.seen.Cardinality()
}

// Seen returns a snapshot of all admitted ids, in no particular order.
func (d *Dedup) Seen() []string {
	return d.seen.ToSlice()
}
