package engine

import "github.com/blobd/blobd/reference"

// Iterator walks the references returned by Engine.List. Its snapshot is
// taken once, from a single directory walk, up front — there is no
// "second pass" over the filesystem as callers advance it, matching the
// point-in-time semantics spec §4.3 requires without needing a
// goroutine-backed generator.
type Iterator struct {
	refs []reference.Reference
	i    int
}

// Next advances the iterator and reports whether a reference is
// available via Reference.
func (it *Iterator) Next() bool {
	it.i++
	return it.i < len(it.refs)
}

// Reference returns the reference at the iterator's current position.
// Valid only after a call to Next that returned true.
func (it *Iterator) Reference() reference.Reference {
	return it.refs[it.i]
}

// Len reports the total number of references captured in this snapshot.
func (it *Iterator) Len() int {
	return len(it.refs)
}
