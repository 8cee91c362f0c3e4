package engine

import (
	"github.com/mizutama/pochi/internal/snippet"
)

// Action is one of the four canonical state transitions.
type Action interface {
	isAction()
}

// Replace fully supersedes the canonical sequence, including order.
type Replace struct {
	Snippets []snippet.Snippet
}

// Add prepends a snippet. The caller is responsible for id uniqueness;
// the reducer does not deduplicate.
type Add struct {
	Snippet snippet.Snippet
}

// Update replaces the snippet with the same id in place. Unknown ids
// are a no-op.
type Update struct {
	Snippet snippet.Snippet
}

// Delete removes the snippet with the given id. Unknown ids are a
// no-op.
type Delete struct {
	ID string
}

func (Replace) isAction() {}
func (Add) isAction()     {}
func (Update) isAction()  {}
func (Delete) isAction()  {}

// reduce applies an action to a state sequence and returns the next
// sequence. It is a total function: every action yields a valid next
// state, and the input slice is never mutated.
func reduce(state []snippet.Snippet, action Action) []snippet.Snippet {
	switch a := action.(type) {
	case Replace:
		return snippet.Clone(a.Snippets)

	case Add:
		next := make([]snippet.Snippet, 0, len(state)+1)
		next = append(next, a.Snippet)
		return append(next, state...)

	case Update:
		next := snippet.Clone(state)
		for i := range next {
			if next[i].ID == a.Snippet.ID {
				next[i] = a.Snippet
			}
		}
		return next

	case Delete:
		next := make([]snippet.Snippet, 0, len(state))
		for _, s := range state {
			if s.ID != a.ID {
				next = append(next, s)
			}
		}
		return next

	default:
		return state
	}
}
