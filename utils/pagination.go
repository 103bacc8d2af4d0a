package utils

import (
	"strconv"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Pagination is a resolved page request
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// BuildPagination parses page and limit query values. Page is at least 1 and limit is clamped to [1, 100].
func BuildPagination(pageValue, limitValue string) Pagination {
	page, err := strconv.Atoi(pageValue)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(limitValue)
	if err != nil || limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// TotalPages returns the number of pages needed for total items
func (p Pagination) TotalPages(total int64) int64 {
	if total == 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
