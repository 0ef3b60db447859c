package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		count      int64
		wantNumber int
		wantPages  int
		wantOffset int
	}{
		{"first page by default", "", 13, 1, 2, 0},
		{"explicit second page", "2", 13, 2, 2, 10},
		{"non integer falls back to first", "abc", 13, 1, 2, 0},
		{"beyond last falls back to last", "99", 13, 2, 2, 10},
		{"zero falls back to last", "0", 13, 2, 2, 10},
		{"negative falls back to last", "-1", 25, 3, 3, 20},
		{"empty listing has one page", "1", 0, 1, 1, 0},
		{"empty listing any page", "5", 0, 1, 1, 0},
		{"exact multiple", "2", 20, 2, 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Resolve(tt.raw, tt.count, DefaultPageSize)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantPages, p.NumPages)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, tt.count, p.Count)
		})
	}
}

func TestPageNavigation(t *testing.T) {
	t.Parallel()

	first := Resolve("1", 13, 10)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasOtherPages())
	assert.Equal(t, 2, first.NextNumber())

	last := Resolve("2", 13, 10)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrevious())
	assert.Equal(t, 1, last.PreviousNumber())
	assert.Equal(t, []int{1, 2}, last.Numbers())

	single := Resolve("1", 3, 10)
	assert.False(t, single.HasOtherPages())
}

func TestResolve_DefaultSize(t *testing.T) {
	t.Parallel()
	p := Resolve("1", 30, 0)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, 3, p.NumPages)
}
