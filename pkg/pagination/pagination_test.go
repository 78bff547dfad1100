package pagination_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/ptr"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		page     *int
		size     *int
		expected pagination.Params
	}{
		{name: "defaults", expected: pagination.Params{Page: 1, Size: 10}},
		{name: "explicit values", page: ptr.New(3), size: ptr.New(25), expected: pagination.Params{Page: 3, Size: 25}},
		{name: "page below one", page: ptr.New(0), size: ptr.New(5), expected: pagination.Params{Page: 1, Size: 5}},
		{name: "negative page", page: ptr.New(-4), expected: pagination.Params{Page: 1, Size: 10}},
		{name: "size below minimum", size: ptr.New(0), expected: pagination.Params{Page: 1, Size: 1}},
		{name: "size above maximum", size: ptr.New(1000), expected: pagination.Params{Page: 1, Size: 100}},
		{name: "huge page", page: ptr.New(math.MaxInt), size: ptr.New(100), expected: pagination.Params{Page: math.MaxInt / 100, Size: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pagination.Normalize(tt.page, tt.size))
		})
	}
}

func TestParamsOffset(t *testing.T) {
	p := pagination.Params{Page: 3, Size: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}

func TestOffsetNeverOverflows(t *testing.T) {
	for _, page := range []int{math.MaxInt / 50, math.MaxInt / 2, math.MaxInt} {
		for _, size := range []int{1, 7, 50, 100} {
			p := pagination.Normalize(ptr.New(page), ptr.New(size))
			assert.GreaterOrEqual(t, p.Offset(), 0, "page=%d size=%d", page, size)
		}
	}
}

func TestNewPage(t *testing.T) {
	t.Run("Should compute total pages", func(t *testing.T) {
		page := pagination.NewPage([]int{1, 2}, pagination.Params{Page: 1, Size: 2}, 5)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 5, page.Total)
	})

	t.Run("Should return empty items for out of range page", func(t *testing.T) {
		page := pagination.NewPage[int](nil, pagination.Params{Page: 9, Size: 10}, 3)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("Should report zero pages when empty", func(t *testing.T) {
		page := pagination.NewPage([]int{}, pagination.Params{Page: 1, Size: 10}, 0)
		assert.Equal(t, 0, page.TotalPages)
	})
}

func TestMap(t *testing.T) {
	page := pagination.NewPage([]int{1, 2, 3}, pagination.Params{Page: 2, Size: 3}, 9)
	mapped := pagination.Map(page, strconv.Itoa)

	assert.Equal(t, []string{"1", "2", "3"}, mapped.Items)
	assert.Equal(t, 2, mapped.Page)
	assert.Equal(t, 3, mapped.TotalPages)
}
