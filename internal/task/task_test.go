package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	got := New(RawTask{ID: "x"})

	assert.Equal(t, "x", got.ID)
	assert.Equal(t, DefaultName, got.Name)
	assert.Equal(t, DefaultType, got.Type)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 0.0, got.Progress)
	assert.Equal(t, "", got.Message)
	assert.NotNil(t, got.Payload)
	assert.Empty(t, got.Payload)
	assert.False(t, got.CancelRequested)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)
}

func TestNew_EmptyRaw(t *testing.T) {
	got := New(RawTask{})

	// Still fully populated; only the id is missing, and the registry is
	// the layer that refuses to store such a record.
	assert.Empty(t, got.ID)
	assert.Equal(t, StatusPending, got.Status)
	assert.NotNil(t, got.Payload)
}

func TestNew_RawFieldsWin(t *testing.T) {
	got := New(RawTask{
		ID:              "t1",
		Name:            ptr("Parse contracts.pdf"),
		Type:            ptr("document_parse"),
		Status:          ptr(StatusRunning),
		Progress:        ptr(42.5),
		Message:         ptr("parsing page 3"),
		CreatedAt:       ptr("2026-08-26T10:00:00Z"),
		Payload:         map[string]any{"file": "contracts.pdf"},
		CancelRequested: ptr(true),
	})

	assert.Equal(t, "Parse contracts.pdf", got.Name)
	assert.Equal(t, "document_parse", got.Type)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, 42.5, got.Progress)
	assert.Equal(t, "parsing page 3", got.Message)
	assert.Equal(t, "2026-08-26T10:00:00Z", got.CreatedAt)
	assert.Equal(t, map[string]any{"file": "contracts.pdf"}, got.Payload)
	assert.True(t, got.CancelRequested)
}

func TestNew_SuccessStatusAlias(t *testing.T) {
	got := New(RawTask{ID: "t1", Status: ptr(Status("success"))})
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestStatus_Active(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusQueued.Active())
	assert.True(t, StatusRunning.Active())

	assert.False(t, StatusCompleted.Active())
	assert.False(t, StatusFailed.Active())
	assert.False(t, StatusCancelled.Active())
	// Unknown statuses are conservatively inactive.
	assert.False(t, Status("exploded").Active())
}

func TestCreatedTime(t *testing.T) {
	parsed, ok := Task{CreatedAt: "2026-08-26T10:00:00Z"}.createdTime()
	assert.True(t, ok)
	assert.Equal(t, 2026, parsed.Year())

	_, ok = Task{}.createdTime()
	assert.False(t, ok)

	_, ok = Task{CreatedAt: "yesterday-ish"}.createdTime()
	assert.False(t, ok)
}
