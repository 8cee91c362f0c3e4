package engine

import (
	"context"
	"log"

	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/snippet"
)

// MergeOption is the user's decision for an open reconciliation
// session.
type MergeOption string

const (
	// MergeUpload keeps the local snapshot, pushes it to the remote
	// collection, and deletes remote items absent from it.
	MergeUpload MergeOption = "upload"

	// MergeDownload adopts the remote snapshot verbatim.
	MergeDownload MergeOption = "download"

	// MergeCombine starts from the remote snapshot and appends local
	// items whose ids the remote does not already hold. Remote wins on
	// id collision.
	MergeCombine MergeOption = "merge"
)

// SetAuth feeds an authentication status transition into the engine.
// Once the status settles on a signed-in account that has not been
// reconciled yet, the local and remote collections are unified: either
// automatically, or by opening a reconciliation session for the
// collaborator to decide. Sign-out resets all session state; it does
// not abort propagation already in flight.
func (e *Engine) SetAuth(ctx context.Context, next AuthState) {
	e.mu.Lock()
	prev := e.auth
	e.auth = next

	if next.Resolving {
		e.mu.Unlock()
		return
	}
	if next.AccountID == "" {
		e.merge = nil
		e.mu.Unlock()
		return
	}
	if prev.SignedIn() && prev.AccountID == next.AccountID {
		// Already reconciled for this account.
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.reconcile(ctx, next.AccountID)
}

// reconcile runs the one-time merge decision for a sign-in transition.
func (e *Engine) reconcile(ctx context.Context, accountID string) {
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	local := e.readPersisted()
	meaningful := snippet.Meaningful(local)

	remoteSnap, err := e.remote.List(ctx, accountID)
	if err != nil {
		// Degrade to local-only resolution rather than blocking login.
		// If the failure was spurious this can shadow remote data until
		// the next sign-in.
		log.Printf("remote fetch failed, resolving with local data only: %v", err)
		remoteSnap = nil
	}

	switch {
	case meaningful && len(remoteSnap) > 0:
		// Both sides hold independent data: surface the decision.
		e.mu.Lock()
		e.merge = &mergeSession{local: local, remote: remoteSnap}
		e.mu.Unlock()

	case meaningful:
		// Local only: push everything up, keep local canonical.
		e.uploadAll(ctx, accountID, local)

	case len(remoteSnap) > 0:
		// Remote only: adopt the remote collection.
		e.mu.Lock()
		e.dispatch(Replace{Snippets: remoteSnap})
		e.mu.Unlock()

	default:
		// Neither side has user data: seed both.
		seed := snippet.Seed()
		e.mu.Lock()
		e.dispatch(Replace{Snippets: seed})
		e.mu.Unlock()
		e.uploadAll(ctx, accountID, seed)
	}
}

// readPersisted reads the local collection as currently persisted.
// Absent or unreadable data counts as empty.
func (e *Engine) readPersisted() []snippet.Snippet {
	data, found, err := e.store.Read()
	if err != nil {
		log.Printf("snippet store read failed during reconciliation: %v", err)
		return nil
	}
	if !found {
		return nil
	}
	local, err := snippet.Decode(data)
	if err != nil {
		log.Printf("snippet store is corrupt, treating local as empty: %v", err)
		return nil
	}
	return local
}

// uploadAll upserts every item sequentially. Failures are logged and
// skipped.
func (e *Engine) uploadAll(ctx context.Context, accountID string, items []snippet.Snippet) {
	for _, s := range items {
		if err := e.remote.Upsert(ctx, accountID, s); err != nil {
			log.Printf("remote upsert failed for %s: %v", s.ID, err)
		}
	}
}

// ResolveMerge applies an explicit decision to the open reconciliation
// session and destroys it. Remote write failures during execution are
// logged, never returned: the final sequence is applied locally
// regardless.
func (e *Engine) ResolveMerge(ctx context.Context, option MergeOption) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.merge == nil {
		return errors.NewNoMergePending()
	}
	local, remoteSnap := e.merge.local, e.merge.remote
	accountID := e.auth.AccountID

	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	var final []snippet.Snippet
	switch option {
	case MergeUpload:
		localIDs := snippet.IDSet(local)
		for _, s := range remoteSnap {
			if !localIDs[s.ID] {
				if err := e.remote.Delete(ctx, accountID, s.ID); err != nil {
					log.Printf("remote delete failed for %s: %v", s.ID, err)
				}
			}
		}
		for _, s := range local {
			if err := e.remote.Upsert(ctx, accountID, s); err != nil {
				log.Printf("remote upsert failed for %s: %v", s.ID, err)
			}
		}
		final = local

	case MergeDownload:
		final = remoteSnap

	case MergeCombine:
		remoteIDs := snippet.IDSet(remoteSnap)
		final = snippet.Clone(remoteSnap)
		for _, s := range local {
			if remoteIDs[s.ID] {
				continue
			}
			final = append(final, s)
			if err := e.remote.Upsert(ctx, accountID, s); err != nil {
				log.Printf("remote upsert failed for %s: %v", s.ID, err)
			}
		}

	default:
		return errors.NewInvalidRequest("merge option must be one of: upload, download, merge")
	}

	e.dispatch(Replace{Snippets: final})
	e.merge = nil
	return nil
}

// DismissMerge resolves an open session without an explicit decision:
// the remote snapshot is adopted and the local one discarded. No
// remote calls are made. Without an open session this is a no-op.
func (e *Engine) DismissMerge() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.merge == nil {
		return
	}
	e.dispatch(Replace{Snippets: e.merge.remote})
	e.merge = nil
}
