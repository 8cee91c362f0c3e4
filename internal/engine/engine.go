// Package engine implements the snippet sync and merge engine: the
// canonical in-memory collection, its durability mirror in the local
// store, and propagation of mutations to the account-scoped remote
// collection.
package engine

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/remote"
	"github.com/mizutama/pochi/internal/snippet"
	"github.com/mizutama/pochi/internal/store"
)

// AuthState is the authentication status supplied by the collaborator.
// Resolving means the status is still being determined; no
// reconciliation happens until it settles.
type AuthState struct {
	AccountID string
	Resolving bool
}

// SignedIn reports whether the state is a settled, signed-in account.
func (a AuthState) SignedIn() bool {
	return !a.Resolving && a.AccountID != ""
}

// mergeSession holds the two snapshots of an open reconciliation
// session. It lives only until a decision (or dismissal) arrives.
type mergeSession struct {
	local  []snippet.Snippet
	remote []snippet.Snippet
}

// Engine owns the canonical snippet sequence. All mutations go through
// the four reducer actions; every transition is mirrored to the local
// store and, when authenticated, propagated to the remote service.
type Engine struct {
	mu    sync.Mutex
	state []snippet.Snippet
	auth  AuthState
	merge *mergeSession

	store  store.Store
	remote remote.Service

	tasks    chan task
	done     chan struct{}
	closed   bool
	inflight atomic.Int64
}

// New creates an engine over the given local store and remote service.
// Initial canonical state is the persisted collection if one exists
// and is non-empty, otherwise the bundled seed set. A corrupt store
// file is logged and treated as absent.
func New(st store.Store, svc remote.Service) *Engine {
	e := &Engine{
		store:  st,
		remote: svc,
		tasks:  make(chan task, taskQueueSize),
		done:   make(chan struct{}),
	}
	e.state = loadInitial(st)
	go e.runPropagator()
	return e
}

// loadInitial reads the persisted collection, falling back to the seed
// set when nothing usable is stored.
func loadInitial(st store.Store) []snippet.Snippet {
	data, found, err := st.Read()
	if err != nil {
		log.Printf("snippet store read failed, starting from defaults: %v", err)
		return snippet.Seed()
	}
	if !found {
		return snippet.Seed()
	}
	saved, err := snippet.Decode(data)
	if err != nil {
		log.Printf("snippet store is corrupt, starting from defaults: %v", err)
		return snippet.Seed()
	}
	if len(saved) == 0 {
		return snippet.Seed()
	}
	return saved
}

// dispatch applies an action and initiates the durability side effect
// before returning. Callers must hold e.mu. Store write failures are
// logged; the in-memory sequence stays authoritative.
func (e *Engine) dispatch(a Action) {
	e.state = reduce(e.state, a)
	e.persistLocked()
}

func (e *Engine) persistLocked() {
	data, err := snippet.Encode(e.state)
	if err != nil {
		log.Printf("failed to encode snippets for persistence: %v", err)
		return
	}
	if err := e.store.Write(data); err != nil {
		log.Printf("failed to persist snippets: %v", err)
	}
}

// Snippets returns a snapshot of the canonical sequence.
func (e *Engine) Snippets() []snippet.Snippet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snippet.Clone(e.state)
}

// AddSnippet creates a snippet with a fresh id, prepends it, and
// mirrors it to the remote collection when signed in.
func (e *Engine) AddSnippet(label, content, color string) (snippet.Snippet, error) {
	id, err := snippet.NewID()
	if err != nil {
		return snippet.Snippet{}, errors.NewInternal(err)
	}
	s := snippet.Snippet{ID: id, Label: label, Content: content, Color: color}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatch(Add{Snippet: s})
	if e.auth.SignedIn() {
		e.enqueue(task{kind: taskUpsert, accountID: e.auth.AccountID, snippet: s})
	}
	return s, nil
}

// UpdateSnippet replaces the fields of an existing snippet and reports
// whether the id was present. An unknown id leaves state unchanged and
// propagates nothing.
func (e *Engine) UpdateSnippet(id, label, content, color string) bool {
	s := snippet.Snippet{ID: id, Label: label, Content: content, Color: color}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !snippet.IDSet(e.state)[id] {
		return false
	}
	e.dispatch(Update{Snippet: s})
	if e.auth.SignedIn() {
		e.enqueue(task{kind: taskUpsert, accountID: e.auth.AccountID, snippet: s})
	}
	return true
}

// DeleteSnippet removes a snippet by id and reports whether the id was
// present. An unknown id leaves state unchanged and propagates nothing.
func (e *Engine) DeleteSnippet(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !snippet.IDSet(e.state)[id] {
		return false
	}
	e.dispatch(Delete{ID: id})
	if e.auth.SignedIn() {
		e.enqueue(task{kind: taskDelete, accountID: e.auth.AccountID, id: id})
	}
	return true
}

// ExportSnippets serializes the canonical sequence to its portable
// JSON representation.
func (e *Engine) ExportSnippets() ([]byte, error) {
	e.mu.Lock()
	state := snippet.Clone(e.state)
	e.mu.Unlock()

	data, err := snippet.Encode(state)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// ImportSnippets replaces the canonical sequence with an externally
// supplied collection. Input that is not a JSON array is rejected
// before the reducer is touched. When signed in, the remote collection
// is wiped and re-uploaded in the background.
func (e *Engine) ImportSnippets(data []byte) error {
	imported, err := snippet.Decode(data)
	if err != nil {
		return errors.NewInvalidImport(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatch(Replace{Snippets: imported})
	if e.auth.SignedIn() {
		e.enqueue(task{kind: taskReplaceAll, accountID: e.auth.AccountID, all: snippet.Clone(imported)})
	}
	return nil
}

// Auth returns the current authentication state.
func (e *Engine) Auth() AuthState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth
}

// IsSyncing reports whether any remote work is in flight.
func (e *Engine) IsSyncing() bool {
	return e.inflight.Load() > 0
}

// NeedsMergeDecision reports whether a reconciliation session is open.
func (e *Engine) NeedsMergeDecision() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.merge != nil
}

// MergeSnapshots returns the pending local and remote snapshots of the
// open reconciliation session, or nils when there is none.
func (e *Engine) MergeSnapshots() (local, remoteSnap []snippet.Snippet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.merge == nil {
		return nil, nil
	}
	return snippet.Clone(e.merge.local), snippet.Clone(e.merge.remote)
}

// Close stops the propagator after draining queued tasks. Mutations
// dispatched after Close are applied locally but no longer propagated.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()
	<-e.done
}
