package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is used when StartPolling is given a non-positive
// interval.
const DefaultPollInterval = 5 * time.Second

// ListParams carries filter options for a full-list fetch. The engine
// passes them through to the job service opaquely; recognized keys (e.g.
// "status", "limit") are the service's business.
type ListParams map[string]string

// ListSummary is the aggregate block the job service attaches to a list
// response.
type ListSummary struct {
	Total         int            `json:"total"`
	FilteredTotal int            `json:"filtered_total"`
	StatusCounts  map[string]int `json:"status_counts"`
	TypeCounts    map[string]int `json:"type_counts"`
}

// TaskList is a full-list fetch result.
type TaskList struct {
	Tasks   []RawTask
	Summary *ListSummary
}

// JobClient is the remote job-service contract the Monitor consumes. The
// HTTP implementation lives in internal/jobservice.
type JobClient interface {
	// FetchTasks lists tasks matching params. A nil params means an
	// unfiltered full refresh.
	FetchTasks(ctx context.Context, params ListParams) (*TaskList, error)

	// FetchTaskDetail retrieves one task. Fails with a transport error
	// when the task does not exist.
	FetchTaskDetail(ctx context.Context, taskID string) (*RawTask, error)

	// CancelTask requests cancellation. Fails with a transport error when
	// the service rejects it, e.g. because the task is already terminal.
	CancelTask(ctx context.Context, taskID string) error
}

// Notifier surfaces non-fatal, user-visible notices. Delivery (toast, CLI
// line, ...) is the presentation layer's concern.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(_ context.Context, message string) {
	n.logger.Warn("task notice", "message", message)
}

// QueuedTask describes an optimistic record for a job that was just
// submitted and not yet confirmed by a poll.
type QueuedTask struct {
	TaskID   string
	Name     string
	TaskType string
	Message  string
	Payload  map[string]any
}

// Monitor is the sync engine: it owns a Registry, talks to the job service
// through a JobClient, and runs the polling controller. Remote failures are
// absorbed into a readable last-error slot and never propagate to callers;
// the periodic poll is the implicit retry for list refreshes.
//
// Concurrently in-flight refreshes for the same task id resolve
// last-writer-wins: whichever response's upsert lands last is what the
// registry shows. There is no sequence-number guard.
type Monitor struct {
	client   JobClient
	registry *Registry
	logger   *slog.Logger
	notifier Notifier

	mu         sync.Mutex
	loading    bool
	lastErr    error
	summary    *ListSummary
	drawerOpen bool
	pollCancel context.CancelFunc

	now func() time.Time
}

// NewMonitor creates a Monitor around the given client. Notices go to the
// logger until SetNotifier installs a real delivery channel.
func NewMonitor(client JobClient, logger *slog.Logger) *Monitor {
	return &Monitor{
		client:   client,
		registry: NewRegistry(),
		logger:   logger,
		notifier: logNotifier{logger: logger},
		now:      time.Now,
	}
}

// SetNotifier installs a custom notice channel.
func (m *Monitor) SetNotifier(n Notifier) {
	if n != nil {
		m.notifier = n
	}
}

// LoadTasks performs a full-list refresh. On success the registry is
// replaced by the service's snapshot and the last-error slot is cleared; on
// failure the registry is left untouched and the error recorded. The
// loading flag is cleared on every path.
func (m *Monitor) LoadTasks(ctx context.Context, params ListParams) {
	m.setLoading(true)
	defer m.setLoading(false)

	list, err := m.client.FetchTasks(ctx, params)
	if err != nil {
		m.recordErr("load tasks", err)
		return
	}

	var raws []RawTask
	var summary *ListSummary
	if list != nil {
		raws = list.Tasks
		summary = list.Summary
	}
	m.registry.ReplaceAll(raws)

	m.mu.Lock()
	m.lastErr = nil
	m.summary = summary
	m.mu.Unlock()

	m.logger.Debug("task list refreshed", "count", len(raws))
}

// RefreshTask reconciles a single record from the service's detail
// endpoint. An empty id is a no-op; a failure leaves the registry unchanged
// and records the error.
func (m *Monitor) RefreshTask(ctx context.Context, taskID string) {
	if taskID == "" {
		return
	}

	raw, err := m.client.FetchTaskDetail(ctx, taskID)
	if err != nil {
		m.recordErr("refresh task", err, "task_id", taskID)
		return
	}
	if raw == nil {
		return
	}
	m.registry.Upsert(*raw)
}

// CancelTask asks the service to cancel a task and, on acceptance, pulls
// the authoritative post-cancellation state. The client never locally
// flips the status to cancelled; the service decides the outcome. On
// rejection the failure is recorded and additionally surfaced through the
// Notifier. Issuing it twice on an already-terminal task at worst yields a
// harmless unchanged reconciliation.
func (m *Monitor) CancelTask(ctx context.Context, taskID string) {
	if taskID == "" {
		return
	}

	if err := m.client.CancelTask(ctx, taskID); err != nil {
		m.recordErr("cancel task", err, "task_id", taskID)
		m.notifier.Notify(ctx, fmt.Sprintf("could not cancel task %s: %v", taskID, err))
		return
	}

	m.registry.MarkCancelRequested(taskID)
	m.RefreshTask(ctx, taskID)
}

// RegisterQueuedTask seeds an optimistic record for a freshly submitted job
// so the presentation layer shows immediate feedback before the first poll
// confirms server-side receipt. An empty task id is a no-op.
func (m *Monitor) RegisterQueuedTask(q QueuedTask) {
	if q.TaskID == "" {
		return
	}

	now := m.now().UTC().Format(time.RFC3339)
	m.registry.Upsert(RawTask{
		ID:        q.TaskID,
		Name:      ptr(q.Name),
		Type:      ptr(q.TaskType),
		Status:    ptr(StatusQueued),
		Progress:  ptr(0.0),
		Message:   ptr(q.Message),
		CreatedAt: ptr(now),
		UpdatedAt: ptr(now),
		Payload:   q.Payload,
	})
	m.logger.Debug("queued task registered", "task_id", q.TaskID, "task_type", q.TaskType)
}

// StartPolling starts the periodic full-list refresh. Idempotent: when a
// ticker is already active the call is a no-op, so two consecutive starts
// never run two tickers. Tick failures keep the ticker running at the fixed
// interval; there is no backoff.
func (m *Monitor) StartPolling(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	m.mu.Lock()
	if m.pollCancel != nil {
		m.mu.Unlock()
		m.logger.Debug("polling already active")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.pollCancel = cancel
	m.mu.Unlock()

	go m.pollLoop(ctx, interval)
	m.logger.Info("polling started", "interval", interval.String())
}

func (m *Monitor) pollLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Each tick is an unfiltered refresh on a background context:
			// stopping the ticker must not cancel a fetch already in
			// flight, which is allowed to complete and apply its result.
			m.LoadTasks(context.Background(), nil)
		}
	}
}

// StopPolling cancels the ticker. Safe to call when already idle. An
// in-flight tick finishes and applies its reconciliation after the stop.
func (m *Monitor) StopPolling() {
	m.mu.Lock()
	cancel := m.pollCancel
	m.pollCancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.logger.Info("polling stopped")
}

// IsPolling reports whether the ticker is active.
func (m *Monitor) IsPolling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pollCancel != nil
}

// Reset tears the session down: stops polling, clears the registry, the
// last-error slot and the list summary, and closes the drawer. Intended
// for logout or navigation-away so no task state leaks across sessions.
func (m *Monitor) Reset() {
	m.StopPolling()
	m.registry.Clear()

	m.mu.Lock()
	m.lastErr = nil
	m.summary = nil
	m.drawerOpen = false
	m.loading = false
	m.mu.Unlock()

	m.logger.Info("task session reset")
}

// Tasks returns the registry in insertion order.
func (m *Monitor) Tasks() []Task {
	return m.registry.Snapshot()
}

// SortedTasks returns the registry ordered by created_at descending.
func (m *Monitor) SortedTasks() []Task {
	return m.registry.SortedByCreated()
}

// Task returns one record by id.
func (m *Monitor) Task(id string) (Task, bool) {
	return m.registry.Get(id)
}

// ActiveCount returns the number of in-progress records.
func (m *Monitor) ActiveCount() int {
	return m.registry.ActiveCount()
}

// Loading reports whether a full-list refresh is in flight.
func (m *Monitor) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// LastError returns the most recent absorbed sync failure, or nil.
func (m *Monitor) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Summary returns the aggregate block from the last successful list fetch,
// or nil.
func (m *Monitor) Summary() *ListSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary
}

// DrawerOpen reports the presentation drawer flag.
func (m *Monitor) DrawerOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawerOpen
}

// OpenDrawer opens the presentation drawer.
func (m *Monitor) OpenDrawer() {
	m.setDrawer(true)
}

// CloseDrawer closes the presentation drawer.
func (m *Monitor) CloseDrawer() {
	m.setDrawer(false)
}

// ToggleDrawer flips the presentation drawer flag and returns the new
// state.
func (m *Monitor) ToggleDrawer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawerOpen = !m.drawerOpen
	return m.drawerOpen
}

func (m *Monitor) setDrawer(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawerOpen = open
}

func (m *Monitor) setLoading(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = v
}

func (m *Monitor) recordErr(op string, err error, args ...any) {
	m.mu.Lock()
	m.lastErr = fmt.Errorf("%s: %w", op, err)
	m.mu.Unlock()

	logArgs := append([]any{"error", err}, args...)
	m.logger.Error(op+" failed", logArgs...)
}
