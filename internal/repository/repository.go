// Package repository provides the gorm-backed implementations of the
// per-domain Repository interfaces.
package repository

import "math"

const defaultPageSize = 20

// normalizePage clamps paging inputs the same way everywhere.
func normalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

func totalPages(count int64, pageSize int) int {
	return int(math.Ceil(float64(count) / float64(pageSize)))
}
