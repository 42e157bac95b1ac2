package utils

import "math"

// CalculateTotalPages rounds up; zero when there is nothing to page.
func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// CalculateOffset returns the row offset of page. It never goes negative:
// pages past the addressable range are pinned to the last one.
func CalculateOffset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	if page-1 > math.MaxInt32/perPage {
		return math.MaxInt32 / perPage * perPage
	}
	return (page - 1) * perPage
}
