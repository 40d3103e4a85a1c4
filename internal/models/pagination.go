package models

// Campaign and delivery listings are paged. A campaign against a large
// client directory seeds tens of thousands of delivery rows, so the
// requested page size is clamped rather than trusted.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationResult holds the page metadata returned alongside list data.
type PaginationResult struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// ClampPage normalizes the requested page and page size in place.
func ClampPage(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = DefaultPageSize
	}
	if *pageSize > MaxPageSize {
		*pageSize = MaxPageSize
	}
}

// PageOffset converts a page number into a SQL offset.
func PageOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// NewPaginationResult derives the metadata for one page out of totalCount rows.
func NewPaginationResult(page, pageSize int, totalCount int64) PaginationResult {
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return PaginationResult{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
