package utils

import (
	"strconv"
)

// Pagination describes one page of a timestamp-descending listing.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevNum    int
	NextNum    int
	// PastEnd is set when Page lies beyond the last page. Such pages hold no
	// items and must not be queried.
	PastEnd bool
}

// ParsePage reads a page query value. Anything missing, malformed or below 1
// becomes page 1.
func ParsePage(raw string) int {
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// NewPagination computes page metadata. Pages past the end are allowed and
// simply hold no items.
func NewPagination(page, perPage int, total int64) Pagination {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages == 0 {
		totalPages = 1
	}
	p := Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PastEnd:    page > totalPages,
	}
	if p.HasPrev {
		p.PrevNum = page - 1
	}
	if p.HasNext {
		p.NextNum = page + 1
	}
	return p
}

// Offset is the number of rows before this page. Pages past the end start
// after the last row, so huge page numbers cannot overflow.
func (p Pagination) Offset() int {
	if p.PastEnd {
		return int(p.Total)
	}
	return (p.Page - 1) * p.PerPage
}

// Pages lists page numbers for a pager, eliding long runs with 0.
func (p Pagination) Pages() []int {
	const edge, around = 2, 2
	var out []int
	last := 0
	for n := 1; n <= p.TotalPages; n++ {
		if n <= edge || n > p.TotalPages-edge || (n >= p.Page-around && n <= p.Page+around) {
			if last != 0 && n-last > 1 {
				out = append(out, 0)
			}
			out = append(out, n)
			last = n
		}
	}
	return out
}
