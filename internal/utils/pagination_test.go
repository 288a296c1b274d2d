package utils

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaginationParams(t *testing.T) {
	cases := []struct {
		query     string
		wantPage  int64
		wantLimit int64
	}{
		{"", 1, 10},
		{"page=3&limit=20", 3, 20},
		{"page=0&limit=0", 1, 10},
		{"page=-2&limit=abc", 1, 10},
		{"page=2&limit=1000", 2, 100},
		{"page=9223372036854775807&limit=100", MaxPage, 100},
	}
	for _, tc := range cases {
		values, _ := url.ParseQuery(tc.query)
		page, limit := ParsePaginationParams(values)
		assert.Equal(t, tc.wantPage, page, tc.query)
		assert.Equal(t, tc.wantLimit, limit, tc.query)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, int64(0), Offset(1, 10))
	assert.Equal(t, int64(20), Offset(3, 10))
	assert.Equal(t, int64(0), Offset(0, 10))
	assert.Positive(t, Offset(math.MaxInt64, MaxLimit))
}
