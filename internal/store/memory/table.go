// Package memory is the in-process entity store: generic keyed tables with
// per-kind monotonic identifiers, plus repository adapters and a unit-of-work
// transactor over them.
package memory

import (
	"sort"
	"sync"
)

// Sequence hands out strictly increasing identifiers starting at 1. Each
// table owns its own sequence, so ids are scoped per entity kind and two
// stores never share counters.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// NewSequence returns a sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next identifier. Identifiers are never reused.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Record is implemented by pointers to storable entities.
type Record interface {
	Identity() int64
	AssignIdentity(id int64)
}

// Table is a keyed record store for one entity kind.
type Table[T any, P interface {
	*T
	Record
}] struct {
	mu   sync.RWMutex
	seq  *Sequence
	rows map[int64]T
}

// NewTable creates an empty table drawing ids from seq.
func NewTable[T any, P interface {
	*T
	Record
}](seq *Sequence) *Table[T, P] {
	return &Table[T, P]{seq: seq, rows: make(map[int64]T)}
}

// Put assigns the next id to rec, stores it and returns the stored record.
func (t *Table[T, P]) Put(rec T) T {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.seq.Next()
	P(&rec).AssignIdentity(id)
	t.rows[id] = rec
	return rec
}

// Get returns the record with the given id.
func (t *Table[T, P]) Get(id int64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.rows[id]
	return rec, ok
}

// FindAll returns every record ordered by id.
func (t *Table[T, P]) FindAll() []T {
	return t.Find(nil)
}

// Find returns the records accepted by match (all when match is nil), ordered by id.
func (t *Table[T, P]) Find(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.rows))
	for _, rec := range t.rows {
		if match == nil || match(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return P(&out[i]).Identity() < P(&out[j]).Identity()
	})
	return out
}

// Update applies mutate to the stored record and returns the merged result.
// The id is restored after mutate, so it can never be overwritten.
func (t *Table[T, P]) Update(id int64, mutate func(*T)) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	mutate(&rec)
	P(&rec).AssignIdentity(id)
	t.rows[id] = rec
	return rec, true
}

// Delete removes the record and reports whether it existed. The id is not
// returned to the sequence.
func (t *Table[T, P]) Delete(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// Len returns the number of stored records.
func (t *Table[T, P]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// restore writes rec back under its own id without touching the sequence.
func (t *Table[T, P]) restore(rec T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[P(&rec).Identity()] = rec
}
