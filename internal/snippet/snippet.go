package snippet

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Snippet is a short labeled text fragment.
// ID is opaque and unique within any single collection snapshot.
type Snippet struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

// Palette colors. Values outside the palette are carried through
// unchanged and treated as the default category by consumers.
const (
	ColorBlue   = "blue"
	ColorPurple = "purple"
	ColorPink   = "pink"
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorGray   = "gray"
)

// Colors lists the fixed six-value palette in display order.
var Colors = []string{
	ColorBlue,
	ColorPurple,
	ColorPink,
	ColorGreen,
	ColorOrange,
	ColorGray,
}

// ValidColor reports whether c is a member of the palette.
func ValidColor(c string) bool {
	for _, v := range Colors {
		if v == c {
			return true
		}
	}
	return false
}

// NewID generates a new ULID for a snippet.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Clone returns a copy of the given sequence. The engine hands out
// snapshots so callers cannot mutate canonical state in place.
func Clone(s []Snippet) []Snippet {
	if s == nil {
		return nil
	}
	out := make([]Snippet, len(s))
	copy(out, s)
	return out
}

// IDSet returns the set of ids present in s.
func IDSet(s []Snippet) map[string]bool {
	set := make(map[string]bool, len(s))
	for _, v := range s {
		set[v.ID] = true
	}
	return set
}
