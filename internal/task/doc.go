// Package task implements a client-side mirror of background jobs owned by
// a remote job service. The service is the sole source of truth; this
// package keeps an in-memory, eventually-consistent registry of its tasks,
// reconciles partial or out-of-order updates into canonical records, and
// drives a polling loop that refreshes the registry at a fixed interval.
//
// The package is split into three layers:
//
//   - Task / RawTask: the canonical record shape and the partial wire
//     payload it is normalized from.
//   - Registry: the ordered, mutex-guarded collection with upsert and
//     full-replace reconciliation plus derived read views.
//   - Monitor: the sync engine tying a JobClient to the registry with
//     load/refresh/cancel operations, the polling controller, and session
//     lifecycle.
package task
