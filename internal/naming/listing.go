package naming

import "golang.org/x/text/cases"

// Listing is a snapshot of the names already present in a directory.
// It is built once from caller-supplied names and never changes.
type Listing struct {
	names map[string]struct{}
	fold  bool
}

// NewListing builds a listing. With caseInsensitive set, names are compared
// after Unicode case folding, so "Shot02.MA" collides with "shot02.ma".
func NewListing(names []string, caseInsensitive bool) Listing {
	l := Listing{
		names: make(map[string]struct{}, len(names)),
		fold:  caseInsensitive,
	}
	for _, name := range names {
		l.names[l.key(name)] = struct{}{}
	}
	return l
}

// Contains reports whether name is taken.
func (l Listing) Contains(name string) bool {
	_, ok := l.names[l.key(name)]
	return ok
}

// Len returns the number of distinct names in the listing.
func (l Listing) Len() int {
	return len(l.names)
}

func (l Listing) key(name string) string {
	if !l.fold {
		return name
	}
	// Casers carry state; a fresh one per call keeps Listing safe to share.
	return cases.Fold().String(name)
}
