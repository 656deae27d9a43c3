package format

// Page is a pagination window over a materialized array.
type Page struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// Paginate slices items to the requested window. Offsets past the end
// yield an empty window; a non-positive limit means no limit.
func Paginate[T any](items []T, offset, limit int) ([]T, Page) {
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	if limit <= 0 {
		limit = total - offset
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return items[offset:end], Page{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: offset+limit < total,
	}
}
