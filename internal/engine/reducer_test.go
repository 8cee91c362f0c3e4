package engine

import (
	"testing"

	"github.com/mizutama/pochi/internal/snippet"
)

func TestReduce_AddPrepends(t *testing.T) {
	state := []snippet.Snippet{{ID: "a"}}
	next := reduce(state, Add{Snippet: snippet.Snippet{ID: "b"}})

	if len(next) != 2 {
		t.Fatalf("len = %d, want 2", len(next))
	}
	if next[0].ID != "b" || next[1].ID != "a" {
		t.Errorf("order = [%s %s], want [b a]", next[0].ID, next[1].ID)
	}
	if len(state) != 1 {
		t.Errorf("input state mutated, len = %d", len(state))
	}
}

func TestReduce_UpdateInPlace(t *testing.T) {
	state := []snippet.Snippet{
		{ID: "a", Label: "one"},
		{ID: "b", Label: "two"},
	}
	next := reduce(state, Update{Snippet: snippet.Snippet{ID: "b", Label: "TWO", Color: snippet.ColorPink}})

	if next[0].Label != "one" {
		t.Errorf("untouched item changed: %+v", next[0])
	}
	if next[1].Label != "TWO" || next[1].Color != snippet.ColorPink {
		t.Errorf("item = %+v, want updated fields", next[1])
	}
	if state[1].Label != "two" {
		t.Error("input state mutated by Update")
	}
}

func TestReduce_UpdateUnknownIDIsNoop(t *testing.T) {
	state := []snippet.Snippet{{ID: "a", Label: "one"}}
	next := reduce(state, Update{Snippet: snippet.Snippet{ID: "zzz", Label: "ghost"}})

	if len(next) != 1 || next[0] != state[0] {
		t.Errorf("state changed on unknown id: %+v", next)
	}
}

func TestReduce_Delete(t *testing.T) {
	state := []snippet.Snippet{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	next := reduce(state, Delete{ID: "b"})

	if len(next) != 2 {
		t.Fatalf("len = %d, want 2", len(next))
	}
	if next[0].ID != "a" || next[1].ID != "c" {
		t.Errorf("order = [%s %s], want [a c]", next[0].ID, next[1].ID)
	}
}

func TestReduce_DeleteUnknownIDIsNoop(t *testing.T) {
	state := []snippet.Snippet{{ID: "a"}}
	next := reduce(state, Delete{ID: "zzz"})

	if len(next) != 1 || next[0].ID != "a" {
		t.Errorf("state changed on unknown id: %+v", next)
	}
}

func TestReduce_ReplaceSupersedesOrder(t *testing.T) {
	state := []snippet.Snippet{{ID: "a"}, {ID: "b"}}
	repl := []snippet.Snippet{{ID: "c"}, {ID: "a", Label: "new"}}
	next := reduce(state, Replace{Snippets: repl})

	if len(next) != 2 || next[0].ID != "c" || next[1].Label != "new" {
		t.Errorf("next = %+v, want replacement verbatim", next)
	}

	// The replacement slice must not share backing storage with state.
	repl[0].ID = "mutated"
	if next[0].ID != "c" {
		t.Error("Replace kept a reference to the caller's slice")
	}
}

// For any sequence of actions on unique-id inputs, no two entries ever
// share an id and the latest applied fields win.
func TestReduce_NoDuplicateIDsAcrossSequences(t *testing.T) {
	state := []snippet.Snippet{}
	actions := []Action{
		Add{Snippet: snippet.Snippet{ID: "a", Label: "a1"}},
		Add{Snippet: snippet.Snippet{ID: "b", Label: "b1"}},
		Update{Snippet: snippet.Snippet{ID: "a", Label: "a2"}},
		Add{Snippet: snippet.Snippet{ID: "c", Label: "c1"}},
		Delete{ID: "b"},
		Update{Snippet: snippet.Snippet{ID: "c", Label: "c2"}},
		Delete{ID: "b"}, // repeat delete is idempotent
	}
	for _, a := range actions {
		state = reduce(state, a)
		seen := map[string]bool{}
		for _, s := range state {
			if seen[s.ID] {
				t.Fatalf("duplicate id %q after %T", s.ID, a)
			}
			seen[s.ID] = true
		}
	}

	want := map[string]string{"a": "a2", "c": "c2"}
	if len(state) != len(want) {
		t.Fatalf("final len = %d, want %d", len(state), len(want))
	}
	for _, s := range state {
		if want[s.ID] != s.Label {
			t.Errorf("id %s label = %q, want %q", s.ID, s.Label, want[s.ID])
		}
	}
}
