package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/snippet"
)

// memStore is an in-memory store.Store with scriptable failures.
type memStore struct {
	mu       sync.Mutex
	data     []byte
	found    bool
	readErr  error
	writeErr error
	writes   int
}

func (m *memStore) Read() ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	return m.data, m.found, nil
}

func (m *memStore) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data = data
	m.found = true
	return nil
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) snapshot(t *testing.T) []snippet.Snippet {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.found {
		return nil
	}
	s, err := snippet.Decode(m.data)
	if err != nil {
		t.Fatalf("persisted data is corrupt: %v", err)
	}
	return s
}

// storeWith seeds a memStore with an already-persisted collection.
func storeWith(t *testing.T, items []snippet.Snippet) *memStore {
	t.Helper()
	data, err := snippet.Encode(items)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return &memStore{data: data, found: true}
}

// remoteCall records one call against the fake remote service.
type remoteCall struct {
	op      string // list, upsert, delete, deleteAll
	account string
	id      string
}

// fakeRemote records every call and serves a scripted list result.
type fakeRemote struct {
	mu         sync.Mutex
	listResult []snippet.Snippet
	listErr    error
	calls      []remoteCall
}

func (f *fakeRemote) List(_ context.Context, accountID string) ([]snippet.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{op: "list", account: accountID})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return snippet.Clone(f.listResult), nil
}

func (f *fakeRemote) Upsert(_ context.Context, accountID string, s snippet.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{op: "upsert", account: accountID, id: s.ID})
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, accountID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{op: "delete", account: accountID, id: id})
	return nil
}

func (f *fakeRemote) DeleteAll(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{op: "deleteAll", account: accountID})
	return nil
}

// callsOf returns recorded calls of one kind, in order.
func (f *fakeRemote) callsOf(op string) []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remoteCall
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func ids(s []snippet.Snippet) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.ID
	}
	return out
}

func sameIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_SeedsWhenStoreEmpty(t *testing.T) {
	e := New(&memStore{}, &fakeRemote{})
	defer e.Close()

	got := e.Snippets()
	want := snippet.Seed()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNew_LoadsPersistedState(t *testing.T) {
	saved := []snippet.Snippet{{ID: "x", Label: "mine"}}
	e := New(storeWith(t, saved), &fakeRemote{})
	defer e.Close()

	got := e.Snippets()
	if !sameIDs(ids(got), "x") {
		t.Errorf("ids = %v, want [x]", ids(got))
	}
}

func TestNew_CorruptStoreFallsBackToSeed(t *testing.T) {
	e := New(&memStore{data: []byte("{broken"), found: true}, &fakeRemote{})
	defer e.Close()

	if len(e.Snippets()) != len(snippet.Seed()) {
		t.Errorf("corrupt store should fall back to the seed set")
	}
}

func TestAddSnippet_PrependsAndPersists(t *testing.T) {
	st := &memStore{}
	e := New(st, &fakeRemote{})
	defer e.Close()

	added, err := e.AddSnippet("zip", "123-4567", snippet.ColorOrange)
	if err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}
	if added.ID == "" {
		t.Fatal("AddSnippet() returned empty id")
	}

	got := e.Snippets()
	if got[0].ID != added.ID {
		t.Errorf("first item = %s, want the new snippet", got[0].ID)
	}

	persisted := st.snapshot(t)
	if len(persisted) == 0 || persisted[0].ID != added.ID {
		t.Errorf("persisted head = %v, want new snippet first", ids(persisted))
	}
}

func TestAddSnippet_PropagatesWhenSignedIn(t *testing.T) {
	fr := &fakeRemote{}
	e := New(&memStore{}, fr)
	e.SetAuth(context.Background(), AuthState{AccountID: "acct-1"})

	// Fresh store plus empty remote seeds both sides first.
	seedUpserts := len(fr.callsOf("upsert"))

	added, err := e.AddSnippet("mail", "x@y.z", snippet.ColorBlue)
	if err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}
	e.Close()

	upserts := fr.callsOf("upsert")
	if len(upserts) != seedUpserts+1 {
		t.Fatalf("upserts = %d, want %d", len(upserts), seedUpserts+1)
	}
	last := upserts[len(upserts)-1]
	if last.id != added.ID || last.account != "acct-1" {
		t.Errorf("last upsert = %+v, want new snippet on acct-1", last)
	}
}

func TestMutations_NotPropagatedWhenSignedOut(t *testing.T) {
	fr := &fakeRemote{}
	e := New(&memStore{}, fr)

	added, _ := e.AddSnippet("a", "1", snippet.ColorGray)
	e.UpdateSnippet(added.ID, "b", "2", snippet.ColorBlue)
	e.DeleteSnippet(added.ID)
	e.Close()

	if len(fr.calls) != 0 {
		t.Errorf("remote calls = %v, want none while signed out", fr.calls)
	}
}

func TestUpdateSnippet_UnknownIDIsNoop(t *testing.T) {
	st := storeWith(t, []snippet.Snippet{{ID: "a", Label: "one"}})
	fr := &fakeRemote{}
	e := New(st, fr)

	before := st.writeCount()
	if e.UpdateSnippet("ghost", "x", "y", snippet.ColorGray) {
		t.Error("UpdateSnippet(unknown id) = true, want false")
	}
	e.Close()

	if got := e.Snippets(); len(got) != 1 || got[0].Label != "one" {
		t.Errorf("state changed on unknown id: %+v", got)
	}
	if st.writeCount() != before {
		t.Error("no-op update should not persist")
	}
	if len(fr.calls) != 0 {
		t.Errorf("no-op update propagated: %v", fr.calls)
	}
}

func TestDeleteSnippet_UnknownIDIsNoop(t *testing.T) {
	st := storeWith(t, []snippet.Snippet{{ID: "a"}})
	fr := &fakeRemote{}
	e := New(st, fr)
	e.SetAuth(context.Background(), AuthState{AccountID: "acct-1"})
	preCalls := len(fr.calls)

	if e.DeleteSnippet("ghost") {
		t.Error("DeleteSnippet(unknown id) = true, want false")
	}
	e.Close()

	if len(e.Snippets()) != 1 {
		t.Error("state changed on unknown id")
	}
	if len(fr.calls) != preCalls {
		t.Errorf("no-op delete propagated: %v", fr.calls[preCalls:])
	}
}

func TestUpdateDelete_DispatchOrder(t *testing.T) {
	st := storeWith(t, []snippet.Snippet{{ID: "a", Label: "one"}})
	e := New(st, &fakeRemote{})
	defer e.Close()

	e.UpdateSnippet("a", "two", "c", snippet.ColorPink)
	e.DeleteSnippet("a")

	if got := e.Snippets(); len(got) != 0 {
		t.Errorf("state = %v, want empty after edit-then-delete", ids(got))
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	items := []snippet.Snippet{
		{ID: "a", Label: "mail", Content: "x@y.z", Color: snippet.ColorBlue},
		{ID: "b", Label: "zip", Content: "123-4567", Color: snippet.ColorOrange},
	}
	e := New(storeWith(t, items), &fakeRemote{})
	defer e.Close()

	data, err := e.ExportSnippets()
	if err != nil {
		t.Fatalf("ExportSnippets() error = %v", err)
	}

	// Scramble then re-import the exported value.
	e.DeleteSnippet("a")
	if err := e.ImportSnippets(data); err != nil {
		t.Fatalf("ImportSnippets() error = %v", err)
	}

	got := e.Snippets()
	if len(got) != len(items) {
		t.Fatalf("len = %d, want %d", len(got), len(items))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], items[i])
		}
	}
}

func TestImportSnippets_RejectsMalformedInput(t *testing.T) {
	e := New(storeWith(t, []snippet.Snippet{{ID: "a"}}), &fakeRemote{})
	defer e.Close()

	for _, bad := range []string{"", "{}", `"text"`, "garbage"} {
		err := e.ImportSnippets([]byte(bad))
		if err == nil {
			t.Fatalf("ImportSnippets(%q) error = nil, want error", bad)
		}
		if !errors.Is(err, errors.ErrInvalidImport) {
			t.Errorf("ImportSnippets(%q) error code = %v, want INVALID_IMPORT", bad, err)
		}
	}

	if got := e.Snippets(); !sameIDs(ids(got), "a") {
		t.Errorf("canonical state touched by rejected import: %v", ids(got))
	}
}

func TestImportSnippets_WipesThenReuploadsWhenSignedIn(t *testing.T) {
	local := []snippet.Snippet{{ID: "01AAAAAAAAAAAAAAAAAAAAAAAA", Label: "user"}}
	fr := &fakeRemote{listResult: nil}
	e := New(storeWith(t, local), fr)
	e.SetAuth(context.Background(), AuthState{AccountID: "acct-1"})

	payload, err := snippet.Encode([]snippet.Snippet{{ID: "n1"}, {ID: "n2"}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := e.ImportSnippets(payload); err != nil {
		t.Fatalf("ImportSnippets() error = %v", err)
	}
	e.Close()

	if len(fr.callsOf("deleteAll")) != 1 {
		t.Fatalf("deleteAll calls = %d, want 1", len(fr.callsOf("deleteAll")))
	}

	// The re-upload follows the wipe and covers exactly the new set.
	var afterWipe []remoteCall
	seenWipe := false
	fr.mu.Lock()
	for _, c := range fr.calls {
		if c.op == "deleteAll" {
			seenWipe = true
			continue
		}
		if seenWipe && c.op == "upsert" {
			afterWipe = append(afterWipe, c)
		}
	}
	fr.mu.Unlock()

	if len(afterWipe) != 2 || afterWipe[0].id != "n1" || afterWipe[1].id != "n2" {
		t.Errorf("upserts after wipe = %+v, want [n1 n2]", afterWipe)
	}
}

func TestStoreWriteFailure_StateStaysAuthoritative(t *testing.T) {
	st := &memStore{writeErr: fmt.Errorf("disk full")}
	e := New(st, &fakeRemote{})
	defer e.Close()

	added, err := e.AddSnippet("a", "b", snippet.ColorGray)
	if err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}
	if got := e.Snippets(); got[0].ID != added.ID {
		t.Error("in-memory state must survive store write failure")
	}
}

func TestClose_DrainsQueuedTasks(t *testing.T) {
	fr := &fakeRemote{}
	e := New(storeWith(t, []snippet.Snippet{{ID: "01AAAAAAAAAAAAAAAAAAAAAAAA"}}), fr)
	e.SetAuth(context.Background(), AuthState{AccountID: "acct-1"})
	preUpserts := len(fr.callsOf("upsert"))

	for i := 0; i < 10; i++ {
		if _, err := e.AddSnippet("n", "c", snippet.ColorGray); err != nil {
			t.Fatalf("AddSnippet() error = %v", err)
		}
	}
	e.Close()

	if got := len(fr.callsOf("upsert")); got != preUpserts+10 {
		t.Errorf("upserts = %d, want %d after drain", got, preUpserts+10)
	}
	if e.IsSyncing() {
		t.Error("IsSyncing() = true after Close")
	}
}
