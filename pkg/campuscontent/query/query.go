// Package query implements the read-side pipeline applied to list results:
// a visibility gate, a case-insensitive text match, categorical and numeric
// filters, and a stable named sort.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/constraints"
)

// ErrUnknownSort indicates a sort name outside a pipeline's enumeration.
var ErrUnknownSort = errors.New("unknown sort")

// Predicate selects items.
type Predicate[T any] func(T) bool

// Comparator orders two items, returning a negative number when a sorts
// before b.
type Comparator[T any] func(a, b T) int

// Pipeline is the per-type configuration of the read-side filters.
type Pipeline[T any] struct {
	// Gate drops items that are never visible in list views. Optional.
	Gate Predicate[T]

	// Text returns the fields searched by the text term.
	Text func(T) []string

	// Sorts is the closed enumeration of named comparators.
	Sorts map[string]Comparator[T]
}

// Options are the caller-supplied parameters of one pipeline run.
type Options[T any] struct {
	// Term is matched case-insensitively as a substring of any text field.
	// An empty term matches everything.
	Term string

	// Filters must all match.
	Filters []Predicate[T]

	// Sort names a comparator. An empty name keeps the input order.
	Sort string
}

// Apply runs the pipeline over items and returns a new slice. The input is
// never modified.
func (p Pipeline[T]) Apply(items []T, opts Options[T]) ([]T, error) {
	var less Comparator[T]
	if opts.Sort != "" {
		c, ok := p.Sorts[opts.Sort]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSort, opts.Sort)
		}
		less = c
	}

	term := strings.ToLower(opts.Term)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if p.Gate != nil && !p.Gate(item) {
			continue
		}
		if term != "" && !p.matchText(item, term) {
			continue
		}
		if !all(item, opts.Filters) {
			continue
		}
		out = append(out, item)
	}

	if less != nil {
		slices.SortStableFunc(out, less)
	}
	return out, nil
}

// SortNames returns the pipeline's sort names in lexical order.
func (p Pipeline[T]) SortNames() []string {
	names := make([]string, 0, len(p.Sorts))
	for name := range p.Sorts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p Pipeline[T]) matchText(item T, term string) bool {
	if p.Text == nil {
		return true
	}
	for _, f := range p.Text(item) {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func all[T any](item T, preds []Predicate[T]) bool {
	for _, pred := range preds {
		if pred != nil && !pred(item) {
			return false
		}
	}
	return true
}

// Ascending orders by key, smallest first.
func Ascending[T any, K constraints.Ordered](key func(T) K) Comparator[T] {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}

// Descending orders by key, largest first.
func Descending[T any, K constraints.Ordered](key func(T) K) Comparator[T] {
	return func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	}
}

// FoldAscending orders strings case-insensitively, ties broken by the raw
// value.
func FoldAscending[T any](key func(T) string) Comparator[T] {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		if c := cmp.Compare(strings.ToLower(ka), strings.ToLower(kb)); c != 0 {
			return c
		}
		return cmp.Compare(ka, kb)
	}
}

// Equals matches items whose field equals want. The empty string and "all"
// match every item.
func Equals[T any](field func(T) string, want string) Predicate[T] {
	if want == "" || strings.EqualFold(want, "all") {
		return nil
	}
	return func(item T) bool {
		return field(item) == want
	}
}

// Contains matches items whose array field holds want. The empty string and
// "all" match every item.
func Contains[T any](field func(T) []string, want string) Predicate[T] {
	if want == "" || strings.EqualFold(want, "all") {
		return nil
	}
	return func(item T) bool {
		return slices.Contains(field(item), want)
	}
}
