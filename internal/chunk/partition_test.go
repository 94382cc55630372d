package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionBranches(t *testing.T) {
	tests := []struct {
		name     string
		pages    int
		capacity int
		want     []PageRange
	}{
		{"empty", 0, 4, []PageRange{}},
		{"one page per worker", 3, 4, []PageRange{{1, 1}, {2, 2}, {3, 3}}},
		{"exactly capacity", 4, 4, []PageRange{{1, 1}, {2, 2}, {3, 3}, {4, 4}}},
		{"up to twice capacity", 7, 4, []PageRange{{1, 2}, {3, 4}, {5, 6}, {7, 7}}},
		{"twice capacity", 8, 4, []PageRange{{1, 2}, {3, 4}, {5, 6}, {7, 8}}},
		{"large doc", 20, 4, []PageRange{{1, 5}, {6, 10}, {11, 15}, {16, 20}}},
		{"large doc min chunk", 10, 4, []PageRange{{1, 3}, {4, 6}, {7, 9}, {10, 10}}},
		{"small fan-out capped at five", 14, 8, []PageRange{{1, 3}, {4, 6}, {7, 9}, {10, 12}, {13, 14}}},
		{"single worker", 5, 1, []PageRange{{1, 5}}},
		{"single worker two pages", 2, 1, []PageRange{{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.pages, tt.capacity)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartitionCoversEveryPageOnce(t *testing.T) {
	for pages := 0; pages <= 120; pages++ {
		for capacity := 1; capacity <= 16; capacity++ {
			ranges := Partition(pages, capacity)
			require.NoError(t, Validate(ranges, pages), "pages=%d capacity=%d", pages, capacity)
		}
	}
}

func TestPartitionZeroCapacityTreatedAsOne(t *testing.T) {
	assert.Equal(t, Partition(6, 1), Partition(6, 0))
}

func TestValidateRejectsGapsAndOverlaps(t *testing.T) {
	assert.Error(t, Validate([]PageRange{{1, 2}, {4, 5}}, 5))
	assert.Error(t, Validate([]PageRange{{1, 3}, {3, 5}}, 5))
	assert.Error(t, Validate([]PageRange{{1, 2}}, 5))
	assert.Error(t, Validate([]PageRange{{2, 1}}, 1))
	assert.NoError(t, Validate(nil, 0))
}

func TestPageRangeString(t *testing.T) {
	assert.Equal(t, "3", PageRange{3, 3}.String())
	assert.Equal(t, "3-7", PageRange{3, 7}.String())
	assert.Equal(t, 5, PageRange{3, 7}.Len())
}
