package web

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageQuery(t *testing.T) {
	tests := []struct {
		target     string
		custom     bool
		page, size int
	}{
		{"/x", false, 1, 20},
		{"/x?page=3", false, 3, 20},
		{"/x?page=0", false, 1, 20},
		{"/x?page=-2", false, 1, 20},
		{"/x?page=abc", false, 1, 20},
		{"/x?page_size=50", false, 1, 20},
		{"/x?page_size=50", true, 1, 50},
		{"/x?page_size=500", true, 1, 20},
	}
	for _, tt := range tests {
		q := ParsePageQuery(httptest.NewRequest(http.MethodGet, tt.target, nil), 20, tt.custom)
		assert.Equal(t, tt.page, q.Page, tt.target)
		assert.Equal(t, tt.size, q.PageSize, tt.target)
	}
}

func TestPageSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{1, 2, 3}, PageSlice(items, PageQuery{Page: 1, PageSize: 3}))
	assert.Equal(t, []int{7}, PageSlice(items, PageQuery{Page: 3, PageSize: 3}))
	assert.Equal(t, []int{}, PageSlice(items, PageQuery{Page: 4, PageSize: 3}))
	assert.Equal(t, []int{}, PageSlice([]int(nil), PageQuery{Page: 1, PageSize: 3}))

	// (page-1)*size would wrap negative
	assert.Equal(t, []int{}, PageSlice(items, PageQuery{Page: 4611686018427387904, PageSize: 10}))
	assert.Equal(t, []int{}, PageSlice(items, PageQuery{Page: math.MaxInt, PageSize: 20}))
}

func TestPageQuery_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, (&PageQuery{Page: 1, PageSize: 10}).Offset())
	assert.Equal(t, 20, (&PageQuery{Page: 3, PageSize: 10}).Offset())
	assert.Equal(t, math.MaxInt, (&PageQuery{Page: 4611686018427387904, PageSize: 10}).Offset())

	q := ParsePageQuery(httptest.NewRequest(http.MethodGet, "/x?page=4611686018427387904", nil), 10, false)
	assert.Equal(t, 4611686018427387904, q.Page)
	assert.Equal(t, math.MaxInt, q.Offset())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), *d)

	for _, bad := range []string{"2023-02-29", "29/02/2024", "2024-2-1", "today"} {
		_, err = ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDateRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?start_date=2024-01-01&end_date=2024-01-31", nil)
	start, end, err := ParseDateRange(r)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", start.Format(dateLayout))
	assert.Equal(t, "2024-01-31", end.Format(dateLayout))

	_, _, err = ParseDateRange(httptest.NewRequest(http.MethodGet, "/x?end_date=nope", nil))
	assert.Error(t, err)
}
