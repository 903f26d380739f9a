// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the number of organizations per directory page.
const PageSize = 12

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Range holds computed display values for one page of a list.
type Range struct {
	Page      int
	PageCount int
	Total     int
	Start     int // 1-based index of the first row (0 if no results)
	End       int // 1-based index of the last row (0 if no results)
	HasPrev   bool
	HasNext   bool
	PrevPage  int
	NextPage  int
}

// ComputeRange derives display values from the backend's pagination block
// and the number of rows actually shown.
func ComputeRange(p models.Pagination, shown int) Range {
	page, size := p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = PageSize
	}
	rg := Range{
		Page:      page,
		PageCount: p.PageCount,
		Total:     p.Total,
		HasPrev:   p.HasPrev(),
		HasNext:   p.HasNext(),
		PrevPage:  page - 1,
		NextPage:  page + 1,
	}
	if rg.PrevPage < 1 {
		rg.PrevPage = 1
	}
	if shown > 0 {
		rg.Start = (page-1)*size + 1
		rg.End = rg.Start + shown - 1
	}
	return rg
}
