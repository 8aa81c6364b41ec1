package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UpsertInsertsAtHead(t *testing.T) {
	r := NewRegistry()

	r.Upsert(RawTask{ID: "a"})
	r.Upsert(RawTask{ID: "b"})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].ID)
	assert.Equal(t, "a", snap[1].ID)
}

func TestRegistry_UpsertIdempotent(t *testing.T) {
	r := NewRegistry()
	raw := RawTask{
		ID:       "t1",
		Status:   ptr(StatusRunning),
		Progress: ptr(40.0),
		Message:  ptr("working"),
	}

	r.Upsert(raw)
	first := r.Snapshot()

	r.Upsert(raw)
	second := r.Snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UpsertMergePriority(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "t1", Status: ptr(StatusRunning), Progress: ptr(40.0)})

	// Incoming update carries progress but no status: progress overwrites,
	// status is preserved.
	r.Upsert(RawTask{ID: "t1", Progress: ptr(70.0)})

	got, ok := r.Get("t1")
	require.True(t, ok)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, 70.0, got.Progress)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UpsertNoOpGuards(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "a", Status: ptr(StatusQueued)})
	before := r.Snapshot()

	r.Upsert(RawTask{})
	r.Upsert(RawTask{Status: ptr(StatusFailed), Message: ptr("orphan event")})

	assert.Equal(t, before, r.Snapshot())
}

func TestRegistry_ReplaceAllRemovesAbsent(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "a", Status: ptr(StatusRunning)})
	r.Upsert(RawTask{ID: "b", Status: ptr(StatusQueued)})

	r.ReplaceAll([]RawTask{{ID: "b", Status: ptr(StatusRunning), Progress: ptr(10.0)}})

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b", snap[0].ID)
	assert.Equal(t, StatusRunning, snap[0].Status)
	assert.Equal(t, 10.0, snap[0].Progress)
	_, ok := r.Get("a")
	assert.False(t, ok)
}

func TestRegistry_ReplaceAllSkipsIDless(t *testing.T) {
	r := NewRegistry()

	r.ReplaceAll([]RawTask{
		{ID: "a"},
		{Status: ptr(StatusRunning)},
		{ID: "b"},
	})

	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ReplaceAllEmpty(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "a"})

	r.ReplaceAll(nil)

	assert.Equal(t, 0, r.Len())
}

func TestRegistry_MarkCancelRequestedSticky(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "t1", Status: ptr(StatusRunning)})

	r.MarkCancelRequested("t1")
	got, _ := r.Get("t1")
	assert.True(t, got.CancelRequested)

	// An update without the field preserves the flag.
	r.Upsert(RawTask{ID: "t1", Progress: ptr(80.0)})
	got, _ = r.Get("t1")
	assert.True(t, got.CancelRequested)

	// Only an authoritative payload carrying the field clears it.
	r.Upsert(RawTask{ID: "t1", CancelRequested: ptr(false)})
	got, _ = r.Get("t1")
	assert.False(t, got.CancelRequested)

	// Unknown ids are ignored.
	r.MarkCancelRequested("nope")
	r.MarkCancelRequested("")
}

func TestRegistry_SortedByCreated(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "old", CreatedAt: ptr("2026-08-24T09:00:00Z")})
	r.Upsert(RawTask{ID: "new", CreatedAt: ptr("2026-08-26T09:00:00Z")})
	r.Upsert(RawTask{ID: "mid", CreatedAt: ptr("2026-08-25T09:00:00Z")})

	sorted := r.SortedByCreated()
	require.Len(t, sorted, 3)
	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "mid", sorted[1].ID)
	assert.Equal(t, "old", sorted[2].ID)
}

func TestRegistry_SortedByCreatedToleratesMissing(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "dated", CreatedAt: ptr("2026-08-26T09:00:00Z")})
	r.Upsert(RawTask{ID: "undated"})
	r.Upsert(RawTask{ID: "garbled", CreatedAt: ptr("not-a-timestamp")})

	// Must not panic, must keep every record, and must be deterministic
	// across repeated calls.
	first := r.SortedByCreated()
	second := r.SortedByCreated()
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestRegistry_ActiveCount(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll([]RawTask{
		{ID: "1", Status: ptr(StatusPending)},
		{ID: "2", Status: ptr(StatusCompleted)},
		{ID: "3", Status: ptr(StatusRunning)},
		{ID: "4", Status: ptr(StatusQueued)},
	})

	assert.Equal(t, 3, r.ActiveCount())
}

func TestRegistry_Counts(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll([]RawTask{
		{ID: "1", Status: ptr(StatusRunning), Type: ptr("file_ingest")},
		{ID: "2", Status: ptr(StatusRunning), Type: ptr("file_ingest")},
		{ID: "3", Status: ptr(StatusFailed), Type: ptr("graph_build")},
	})

	assert.Equal(t, map[Status]int{StatusRunning: 2, StatusFailed: 1}, r.StatusCounts())
	assert.Equal(t, map[string]int{"file_ingest": 2, "graph_build": 1}, r.TypeCounts())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "a"})

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Upsert(RawTask{ID: "a", Status: ptr(StatusQueued)})

	snap := r.Snapshot()
	snap[0].Status = StatusFailed

	got, _ := r.Get("a")
	assert.Equal(t, StatusQueued, got.Status)
}
