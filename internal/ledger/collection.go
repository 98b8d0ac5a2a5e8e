package ledger

import (
	"errors"
	"slices"

	"pennywise/internal/core"
)

// ErrDuplicateID rejects a record whose id was already accepted in the same
// replace-all batch.
var ErrDuplicateID = errors.New("duplicate id")

// DateDesc orders entries newest first. Zero dates compare equal to
// anything.
func DateDesc[E core.Dated](a, b E) int {
	da, db := a.EntryDate(), b.EntryDate()
	if da.IsZero() || db.IsZero() {
		return 0
	}
	return db.Compare(da)
}

// SortByDateDesc sorts in place, keeping the relative order of equal dates.
func SortByDateDesc[E core.Dated](entries []E) {
	slices.SortStableFunc(entries, DateDesc[E])
}

// Rejection records why the record at Index was dropped.
type Rejection struct {
	Index  int
	Result core.Result
}

// ReplaceResult is the outcome of a replace-all.
type ReplaceResult[E core.Entry] struct {
	Accepted []E
	Rejected []Rejection
}

func (r ReplaceResult[E]) RejectedCount() int { return len(r.Rejected) }

// Collection holds the entries of one kind, always sorted newest first.
// It is not safe for concurrent use.
type Collection[E core.Entry] struct {
	kind      core.Kind
	key       string
	validator core.Validator[E]
	normalize func(E) E
	entries   []E
}

func newCollection[E core.Entry](key string, v core.Validator[E], normalize func(E) E) *Collection[E] {
	return &Collection[E]{kind: v.Kind, key: key, validator: v, normalize: normalize}
}

func (c *Collection[E]) Kind() core.Kind { return c.kind }

func (c *Collection[E]) Len() int { return len(c.entries) }

// All returns a copy of the entries.
func (c *Collection[E]) All() []E { return slices.Clone(c.entries) }

func (c *Collection[E]) Find(id string) (E, bool) {
	if i := c.index(id); i >= 0 {
		return c.entries[i], true
	}
	var zero E
	return zero, false
}

func (c *Collection[E]) index(id string) int {
	return slices.IndexFunc(c.entries, func(e E) bool { return e.EntryID() == id })
}

func (c *Collection[E]) validate(e E) error {
	return c.validator.Validate(e).Err()
}

func (c *Collection[E]) insert(e E) {
	c.entries = append(c.entries, e)
	SortByDateDesc(c.entries)
}

func (c *Collection[E]) set(i int, e E) {
	c.entries[i] = e
	SortByDateDesc(c.entries)
}

func (c *Collection[E]) remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	return true
}

// reset swaps the whole collection for the valid subset of entries.
func (c *Collection[E]) reset(entries []E) ReplaceResult[E] {
	res := ReplaceResult[E]{Accepted: make([]E, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if c.normalize != nil {
			e = c.normalize(e)
		}
		r := c.validator.Validate(e)
		if _, dup := seen[e.EntryID()]; dup {
			r.Issues = append(r.Issues, core.Issue{Field: "id", Err: ErrDuplicateID})
		}
		if !r.Valid() {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Result: r})
			continue
		}
		seen[e.EntryID()] = struct{}{}
		res.Accepted = append(res.Accepted, e)
	}
	SortByDateDesc(res.Accepted)
	c.entries = slices.Clone(res.Accepted)
	return res
}
