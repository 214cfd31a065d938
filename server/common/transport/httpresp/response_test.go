package httpresp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMeta(t *testing.T) {
	cases := map[string]struct {
		totalItems, page, pageSize int
		want                       Meta
	}{
		"partial last page": {
			totalItems: 25, page: 3, pageSize: 10,
			want: Meta{TotalItems: 25, TotalPages: 3, CurrentPage: 3, PageSize: 10},
		},
		"exact division": {
			totalItems: 30, page: 1, pageSize: 10,
			want: Meta{TotalItems: 30, TotalPages: 3, CurrentPage: 1, PageSize: 10},
		},
		"page past the end keeps totals": {
			totalItems: 25, page: 4, pageSize: 10,
			want: Meta{TotalItems: 25, TotalPages: 3, CurrentPage: 4, PageSize: 10},
		},
		"empty collection": {
			totalItems: 0, page: 1, pageSize: 10,
			want: Meta{TotalItems: 0, TotalPages: 0, CurrentPage: 1, PageSize: 10},
		},
		"zero page size normalized": {
			totalItems: 3, page: 1, pageSize: 0,
			want: Meta{TotalItems: 3, TotalPages: 3, CurrentPage: 1, PageSize: 1},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewMeta(tc.totalItems, tc.page, tc.pageSize))
		})
	}
}

func TestNewUnpagedMeta(t *testing.T) {
	assert.Equal(t, Meta{TotalItems: 7, TotalPages: 1, CurrentPage: 1, PageSize: 7}, NewUnpagedMeta(7))
}
