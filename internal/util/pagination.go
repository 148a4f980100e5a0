package util

import (
	"fmt"
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*size inside int for any accepted size.
	MaxPage = math.MaxInt / MaxPageSize
)

// Calculate turns a 1-based page and a size into an offset and limit.
// Out of range values fall back to page 1 and the default size; pages past MaxPage are clamped.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// ParsePage reads the page and size query values; empty strings mean defaults.
func ParsePage(pageStr, sizeStr string) (page, size int, err error) {
	page, size = 1, DefaultPageSize
	if pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil || page < 1 || page > MaxPage {
			return 0, 0, fmt.Errorf("page must be between 1 and %d", MaxPage)
		}
	}
	if sizeStr != "" {
		if size, err = strconv.Atoi(sizeStr); err != nil || size < 1 || size > MaxPageSize {
			return 0, 0, fmt.Errorf("size must be between 1 and %d", MaxPageSize)
		}
	}
	return page, size, nil
}
