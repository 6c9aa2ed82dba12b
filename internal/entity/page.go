package entity

// Order sorts results by a single field.
type Order struct {
	Field string
	Desc  bool
}

// Page is one window of a paged result set. Pages are 1-indexed. When a
// listing is requested unpaginated (page size or page number <= 0) the
// whole result set comes back as a single page with CurrentPage and
// NextPage both 1. On the last page of a paginated listing NextPage
// wraps back to 1; clients iterate until NextPage returns to the start.
type Page[T any] struct {
	Results     []T   `json:"results"`
	CurrentPage int   `json:"current_page"`
	NextPage    int   `json:"next_page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
}

// Paginated reports whether the page size and number request an actual
// window rather than the whole result set.
func Paginated(pageSize, pageNumber int) bool {
	return pageSize > 0 && pageNumber > 0
}

// PageBounds returns the half-open [start, end) window into a result set
// of the given length for a 1-indexed page request.
func PageBounds(pageSize, pageNumber, length int) (int, int) {
	if !Paginated(pageSize, pageNumber) {
		return 0, length
	}
	start := (pageNumber - 1) * pageSize
	if start > length {
		start = length
	}
	end := start + pageSize
	if end > length {
		end = length
	}
	return start, end
}

// NextPageAfter computes the NextPage stamp for a page request against
// total matching rows.
func NextPageAfter(pageSize, pageNumber int, total int64) int {
	if !Paginated(pageSize, pageNumber) {
		return 1
	}
	if int64(pageNumber)*int64(pageSize) < total {
		return pageNumber + 1
	}
	return 1
}

// NewPage assembles a Page with its navigation stamps.
func NewPage[T any](results []T, pageSize, pageNumber int, total int64) Page[T] {
	if !Paginated(pageSize, pageNumber) {
		return Page[T]{
			Results:     results,
			CurrentPage: 1,
			NextPage:    1,
			PageSize:    len(results),
			Total:       total,
		}
	}
	return Page[T]{
		Results:     results,
		CurrentPage: pageNumber,
		NextPage:    NextPageAfter(pageSize, pageNumber, total),
		PageSize:    pageSize,
		Total:       total,
	}
}
