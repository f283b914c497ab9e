package query

import (
	"github.com/roach88/patientbook/internal/record"
)

// DefaultPageSize is used when a non-positive page size is requested.
const DefaultPageSize = 24

// Query describes one listing request.
type Query struct {
	Filter     Filter  `json:"filter"`
	Text       string  `json:"text,omitempty"`
	SortBy     SortKey `json:"sort_by,omitempty"`
	Descending bool    `json:"descending,omitempty"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

// Result is one page of a listing.
type Result struct {
	Records  []record.Patient `json:"records"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Pages    int              `json:"pages"`
}

// Paginate returns records[page*size : (page+1)*size] together with the total.
// A page beyond the end, or a negative page, yields an empty slice.
func Paginate(records []record.Patient, page, size int) Result {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(records)
	pages := total / size
	if total%size != 0 {
		pages++
	}
	res := Result{
		Records:  []record.Patient{},
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
	// Checking the page against the page count first keeps page*size from
	// overflowing.
	if page < 0 || page >= pages {
		return res
	}

	start := page * size
	end := start + min(size, total-start)
	res.Records = clone(records[start:end])
	return res
}

// Select applies filter, search and sort without paginating.
func Select(records []record.Patient, q Query) []record.Patient {
	key := q.SortBy
	if key == "" {
		key = SortSerialNo
	}
	out := Apply(records, q.Filter)
	out = Search(out, q.Text)
	return Sort(out, key, !q.Descending)
}

// Run applies filter, search, sort and pagination in that order.
func Run(records []record.Patient, q Query) Result {
	return Paginate(Select(records, q), q.Page, q.PageSize)
}
