package pipeline

// DefaultPageSize matches the table view's fixed page length.
const DefaultPageSize = 8

// TotalPages reports the page count for a list, never less than one so the
// table footer can always render "Page 1 of 1".
func TotalPages(count, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (count + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Page slices a 1-indexed page out of the list. Out-of-range pages yield an
// empty slice; callers reset to page 1 whenever filters change.
func Page(deals []Deal, page, size int) []Deal {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(deals) {
		return nil
	}
	end := start + size
	if end > len(deals) {
		end = len(deals)
	}
	return deals[start:end]
}
