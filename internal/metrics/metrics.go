// Package metrics keeps lightweight in-process counters for the edit
// pipeline, served as plain JSON by the metrics endpoint.
package metrics

import "sync/atomic"

type Registry struct {
	editsStarted   atomic.Int64
	editsSucceeded atomic.Int64
	editsFailed    atomic.Int64
	editsRejected  atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) EditStarted() { r.editsStarted.Add(1) }

func (r *Registry) EditSucceeded() { r.editsSucceeded.Add(1) }

func (r *Registry) EditFailed() { r.editsFailed.Add(1) }

// EditRejected counts submissions bounced because an edit was already in
// flight for the session.
func (r *Registry) EditRejected() { r.editsRejected.Add(1) }

func (r *Registry) Snapshot() map[string]int64 {
	return map[string]int64{
		"edits_started":   r.editsStarted.Load(),
		"edits_succeeded": r.editsSucceeded.Load(),
		"edits_failed":    r.editsFailed.Load(),
		"edits_rejected":  r.editsRejected.Load(),
	}
}
