package query

import (
	"fmt"
	"strings"
)

// PriceRange names one bucket of the marketplace price filter.
type PriceRange string

const (
	PriceAll        PriceRange = "all"
	PriceUpTo500    PriceRange = "0-500"
	Price500To2000  PriceRange = "500-2000"
	Price2000To10k  PriceRange = "2000-10000"
	PriceAbove10000 PriceRange = "10000+"
)

// Buckets lists the non-trivial price ranges. Every non-negative price falls
// in exactly one of them.
var Buckets = []PriceRange{PriceUpTo500, Price500To2000, Price2000To10k, PriceAbove10000}

// ParsePriceRange validates a price range name. The empty string means all.
func ParsePriceRange(s string) (PriceRange, error) {
	r := PriceRange(strings.TrimSpace(s))
	if r == "" {
		return PriceAll, nil
	}
	switch r {
	case PriceAll, PriceUpTo500, Price500To2000, Price2000To10k, PriceAbove10000:
		return r, nil
	}
	return "", fmt.Errorf("unknown price range %q", s)
}

// Contains reports whether price falls in the range. Bounds are
// upper-inclusive: 500 belongs to 0-500 and 2000 to 500-2000.
func (r PriceRange) Contains(price float64) bool {
	switch r {
	case PriceAll, "":
		return true
	case PriceUpTo500:
		return price <= 500
	case Price500To2000:
		return price > 500 && price <= 2000
	case Price2000To10k:
		return price > 2000 && price <= 10000
	case PriceAbove10000:
		return price > 10000
	}
	return false
}

// BucketFor returns the bucket holding price.
func BucketFor(price float64) PriceRange {
	for _, b := range Buckets {
		if b.Contains(price) {
			return b
		}
	}
	return PriceAll
}

// InRange matches items whose price falls in r.
func InRange[T any](price func(T) float64, r PriceRange) Predicate[T] {
	if r == PriceAll || r == "" {
		return nil
	}
	return func(item T) bool {
		return r.Contains(price(item))
	}
}
