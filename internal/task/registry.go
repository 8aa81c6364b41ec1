package task

import (
	"sort"
	"sync"
)

// Registry is an ordered collection of task records keyed by id. A single
// writer (the Monitor's sync operations) and any number of readers share
// it, so access is guarded by a readers-writer lock and every read hands
// out a defensive copy.
type Registry struct {
	mu    sync.RWMutex
	tasks []Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert folds a raw payload into the registry. A payload without an id is
// silently ignored; callers may receive partial or malformed push events
// and an empty id marks a caller-side no-op, not a fault. An existing
// record with the same id is merged in place (incoming fields win, absent
// fields are preserved); an unknown id is inserted at the head of the
// sequence so optimistic records surface before the next sort.
func (r *Registry) Upsert(raw RawTask) {
	if raw.ID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.find(raw.ID); i >= 0 {
		r.tasks[i].apply(raw)
		return
	}
	r.tasks = append([]Task{New(raw)}, r.tasks...)
}

// ReplaceAll swaps the entire registry for the normalized list. This is a
// full reconciliation against the service's authoritative snapshot and the
// only operation that removes records: anything not echoed by the payload
// is gone, including optimistic records the service never acknowledged.
// Entries without an id are skipped.
func (r *Registry) ReplaceAll(raws []RawTask) {
	next := make([]Task, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == "" {
			continue
		}
		next = append(next, New(raw))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = next
}

// MarkCancelRequested sticky-sets the cancel_requested flag on the record
// with the given id. Only a subsequent authoritative payload carrying the
// field can clear it again. Unknown ids are ignored.
func (r *Registry) MarkCancelRequested(id string) {
	if id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.find(id); i >= 0 {
		r.tasks[i].CancelRequested = true
	}
}

// Get returns a copy of the record with the given id.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.find(id); i >= 0 {
		return r.tasks[i], true
	}
	return Task{}, false
}

// Snapshot returns a copy of the registry in insertion order.
func (r *Registry) Snapshot() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// SortedByCreated returns the registry ordered by created_at descending.
// Records whose created_at is missing or unparseable compare as equal to
// either neighbor; the stable sort keeps their relative order deterministic
// without promising where they land.
func (r *Registry) SortedByCreated() []Task {
	out := r.Snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		ti, iok := out[i].createdTime()
		tj, jok := out[j].createdTime()
		if !iok || !jok {
			return false
		}
		return ti.After(tj)
	})
	return out
}

// ActiveCount returns the number of records in an active status.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, t := range r.tasks {
		if t.Status.Active() {
			n++
		}
	}
	return n
}

// StatusCounts tallies records per status.
func (r *Registry) StatusCounts() map[Status]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Status]int, len(r.tasks))
	for _, t := range r.tasks {
		counts[t.Status]++
	}
	return counts
}

// TypeCounts tallies records per task type.
func (r *Registry) TypeCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.tasks))
	for _, t := range r.tasks {
		counts[t.Type]++
	}
	return counts
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Clear removes every record.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = nil
}

// find returns the index of the record with the given id, or -1. Callers
// must hold the lock.
func (r *Registry) find(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
