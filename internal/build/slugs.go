package build

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// slugKey folds case and Unicode composition so that slugs which would land
// on the same file on case-insensitive or normalizing file systems compare equal.
func slugKey(slug string) string {
	return norm.NFC.String(strings.ToLower(slug))
}

// slugRegistry tracks which source claimed each slug.
type slugRegistry struct {
	owners map[string]int // slug key -> index into the candidate list
}

func newSlugRegistry() *slugRegistry {
	return &slugRegistry{owners: make(map[string]int)}
}

// claim registers idx for slug and returns the index it displaced, if any.
func (r *slugRegistry) claim(slug string, idx int) (int, bool) {
	key := slugKey(slug)
	prev, taken := r.owners[key]
	r.owners[key] = idx
	return prev, taken
}
