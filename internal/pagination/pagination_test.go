package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"zero_values", PageRequest{}, 1, DefaultPageSize, 0},
		{"explicit", PageRequest{Page: 3, PageSize: 10}, 3, 10, 20},
		{"oversized", PageRequest{Page: 1, PageSize: 500}, 1, MaxPageSize, 0},
		{"negative", PageRequest{Page: -2, PageSize: -1}, 1, DefaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			assert.Equal(t, tt.wantPage, req.Page)
			assert.Equal(t, tt.wantPageSize, req.PageSize)
			assert.Equal(t, tt.wantOffset, req.Offset())
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]int(nil), 2, 20, 41)
	assert.Equal(t, 3, resp.TotalPages)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)

	empty := NewPageResponse([]string{}, 1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
