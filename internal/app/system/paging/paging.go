// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// LimitPlusOne returns PageSize+1 for look-ahead fetches
// (one extra row detects a next page).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart reads the 1-based "start" query parameter.
// Missing or invalid values give 1.
func ParseStart(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "start"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Skip converts a 1-based start into a document offset.
func Skip(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Result reports whether neighbouring pages exist.
type Result struct {
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// TrimPage trims a look-ahead fetch of up to PageSize+1 rows taken at start.
func TrimPage[T any](rows *[]T, start int) Result {
	res := Result{HasPrev: start > 1}
	if len(*rows) > PageSize {
		*rows = (*rows)[:PageSize]
		res.HasNext = true
	}
	return res
}

// Range holds the 1-based display range of a page and the starts of its
// neighbours.
type Range struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	PrevStart int `json:"prev_start"`
	NextStart int `json:"next_start"`
}

// ComputeRange gives the display range for shown rows beginning at start.
func ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{PrevStart: max(start-PageSize, 1), NextStart: start}
	}
	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: max(start-PageSize, 1),
		NextStart: start + shown,
	}
}
