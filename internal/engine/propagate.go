package engine

import (
	"context"
	"log"

	"github.com/mizutama/pochi/internal/snippet"
)

// taskQueueSize bounds the propagation queue. Enqueueing blocks once
// the buffer fills, which in practice only happens if the remote side
// has stalled for hundreds of consecutive writes.
const taskQueueSize = 256

type taskKind int

const (
	taskUpsert taskKind = iota
	taskDelete
	taskReplaceAll
)

// task is one unit of remote propagation work. The account id is
// captured at dispatch time, so a sign-out does not abort work already
// queued for the previous account.
type task struct {
	kind      taskKind
	accountID string
	snippet   snippet.Snippet
	id        string
	all       []snippet.Snippet
}

// enqueue hands a task to the propagator. Callers must hold e.mu.
// After Close the task is dropped; canonical state has already been
// updated and is never rolled back.
func (e *Engine) enqueue(t task) {
	if e.closed {
		return
	}
	e.inflight.Add(1)
	e.tasks <- t
}

// runPropagator is the single background worker that mirrors
// mutations to the remote service. One worker means remote writes for
// an engine apply in dispatch order. Failures are logged and dropped:
// propagation never alters canonical state and is never retried.
func (e *Engine) runPropagator() {
	defer close(e.done)
	ctx := context.Background()

	for t := range e.tasks {
		switch t.kind {
		case taskUpsert:
			if err := e.remote.Upsert(ctx, t.accountID, t.snippet); err != nil {
				log.Printf("remote upsert failed for %s: %v", t.snippet.ID, err)
			}

		case taskDelete:
			if err := e.remote.Delete(ctx, t.accountID, t.id); err != nil {
				log.Printf("remote delete failed for %s: %v", t.id, err)
			}

		case taskReplaceAll:
			// Wipe then sequential re-upload. Not atomic: a failure
			// mid-sequence leaves the remote side with a subset until
			// the next full resync.
			if err := e.remote.DeleteAll(ctx, t.accountID); err != nil {
				log.Printf("remote wipe failed: %v", err)
			}
			for _, s := range t.all {
				if err := e.remote.Upsert(ctx, t.accountID, s); err != nil {
					log.Printf("remote upsert failed for %s: %v", s.ID, err)
				}
			}
		}
		e.inflight.Add(-1)
	}
}
