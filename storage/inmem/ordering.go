package inmemdb

import (
	"sort"
	"time"

	"github.com/lejardineden/backend/core"
)

// sortByTime orders a slice by a time key, newest first by default. Only a
// "created_at" ordering override is honored; the document store equivalents
// index on creation time only.
func sortByTime(n int, key func(i int) time.Time, swap func(i, j int), ordering []core.Ordering) {
	ascending := false
	for _, ord := range ordering {
		if ord.Field == "created_at" {
			ascending = ord.Ascending
		}
	}
	sort.Stable(sliceSorter{n: n, less: func(i, j int) bool {
		if ascending {
			return key(i).Before(key(j))
		}
		return key(i).After(key(j))
	}, swap: swap})
}

type sliceSorter struct {
	n    int
	less func(i, j int) bool
	swap func(i, j int)
}

func (s sliceSorter) Len() int { return s.n }

func (s sliceSorter) Less(i, j int) bool { return s.less(i, j) }

func (s sliceSorter) Swap(i, j int) { s.swap(i, j) }

// paginate returns the [offset, offset+limit) window bounds for a slice of length n.
func paginate(n int, page core.Pagination) (lo, hi int) {
	lo = page.Offset
	if lo > n {
		lo = n
	}
	hi = n
	if page.Limit > 0 && lo+page.Limit < n {
		hi = lo + page.Limit
	}
	return lo, hi
}
