package task

import "time"

// Status represents the current state of a remote task.
type Status string

// Possible task status values. The remote service reports "success" for a
// successfully finished task; normalization folds it into StatusCompleted so
// readers only ever see one vocabulary.
const (
	StatusPending   Status = "pending"
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Defaults applied when a raw payload omits a field.
const (
	DefaultName = "Background Task"
	DefaultType = "general"
)

// Active reports whether the status counts as in-progress. Unknown status
// strings are treated as inactive.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusQueued, StatusRunning:
		return true
	}
	return false
}

// normalizeStatus maps wire aliases onto the canonical vocabulary.
func normalizeStatus(s Status) Status {
	if s == "success" {
		return StatusCompleted
	}
	return s
}

// RawTask is the possibly-partial payload the job service sends for one
// task. Optional fields are pointers so a merge can tell "absent" apart
// from "set to the zero value"; an absent field never overwrites what the
// registry already knows.
type RawTask struct {
	ID              string         `json:"id"`
	Name            *string        `json:"name,omitempty"`
	Type            *string        `json:"type,omitempty"`
	Status          *Status        `json:"status,omitempty"`
	Progress        *float64       `json:"progress,omitempty"`
	Message         *string        `json:"message,omitempty"`
	CreatedAt       *string        `json:"created_at,omitempty"`
	UpdatedAt       *string        `json:"updated_at,omitempty"`
	StartedAt       *string        `json:"started_at,omitempty"`
	CompletedAt     *string        `json:"completed_at,omitempty"`
	Payload         map[string]any `json:"payload,omitempty"`
	Result          any            `json:"result,omitempty"`
	Error           *string        `json:"error,omitempty"`
	CancelRequested *bool          `json:"cancel_requested,omitempty"`
}

// Task is the fully-populated canonical record. Every field carries a
// usable value; absent raw fields take documented defaults so derived
// views never have to null-check. Timestamps are RFC 3339 strings as sent
// by the service, with the empty string standing in for null.
type Task struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Status          Status         `json:"status"`
	Progress        float64        `json:"progress"`
	Message         string         `json:"message"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
	StartedAt       string         `json:"started_at,omitempty"`
	CompletedAt     string         `json:"completed_at,omitempty"`
	Payload         map[string]any `json:"payload"`
	Result          any            `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	CancelRequested bool           `json:"cancel_requested"`
}

// New normalizes a raw payload into a canonical record. Absent or partial
// input degrades to defaults rather than failing; an empty RawTask yields a
// record with an empty ID, which the registry refuses to store.
func New(raw RawTask) Task {
	t := Task{
		ID:       raw.ID,
		Name:     DefaultName,
		Type:     DefaultType,
		Status:   StatusPending,
		Progress: 0,
		Message:  "",
		Payload:  map[string]any{},
	}
	t.apply(raw)
	return t
}

// apply merges the fields present in raw onto the record; incoming fields
// win, absent fields leave the record untouched. The ID is immutable once
// assigned and is never overwritten here.
func (t *Task) apply(raw RawTask) {
	if raw.Name != nil {
		t.Name = *raw.Name
	}
	if raw.Type != nil {
		t.Type = *raw.Type
	}
	if raw.Status != nil {
		t.Status = normalizeStatus(*raw.Status)
	}
	if raw.Progress != nil {
		t.Progress = *raw.Progress
	}
	if raw.Message != nil {
		t.Message = *raw.Message
	}
	if raw.CreatedAt != nil {
		t.CreatedAt = *raw.CreatedAt
	}
	if raw.UpdatedAt != nil {
		t.UpdatedAt = *raw.UpdatedAt
	}
	if raw.StartedAt != nil {
		t.StartedAt = *raw.StartedAt
	}
	if raw.CompletedAt != nil {
		t.CompletedAt = *raw.CompletedAt
	}
	if raw.Payload != nil {
		t.Payload = raw.Payload
	}
	if raw.Result != nil {
		t.Result = raw.Result
	}
	if raw.Error != nil {
		t.Error = *raw.Error
	}
	if raw.CancelRequested != nil {
		t.CancelRequested = *raw.CancelRequested
	}
}

// createdTime parses the record's created_at timestamp. The second return
// is false when the timestamp is missing or unparseable, in which case the
// sort comparator treats the record as equal-ordered to its neighbor.
func (t Task) createdTime() (time.Time, bool) {
	if t.CreatedAt == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, t.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func ptr[T any](v T) *T {
	return &v
}
