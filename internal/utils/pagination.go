package utils

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int64 for any limit up to MaxLimit.
	MaxPage = math.MaxInt64 / MaxLimit
)

// ParsePaginationParams reads page and limit; missing or invalid values fall back to defaults.
func ParsePaginationParams(values url.Values) (page int64, limit int64) {
	return NormalizePage(parseInt(values.Get("page"))), NormalizeLimit(parseInt(values.Get("limit")))
}

func NormalizePage(page int64) int64 {
	switch {
	case page < 1:
		return DefaultPage
	case page > MaxPage:
		return MaxPage
	default:
		return page
	}
}

func NormalizeLimit(limit int64) int64 {
	switch {
	case limit < 1:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Offset is the number of documents to skip for a 1-based page.
func Offset(page, limit int64) int64 {
	return (NormalizePage(page) - 1) * limit
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
