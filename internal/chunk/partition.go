package chunk

import "fmt"

// maxSmallDocWorkers caps the fan-out for documents that only slightly exceed
// worker capacity.
const maxSmallDocWorkers = 5

// minChunkPages is the smallest chunk handed out once a document is much
// larger than the pool.
const minChunkPages = 3

// PageRange is a 1-based, inclusive span of pages.
type PageRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int { return r.Last - r.First + 1 }

func (r PageRange) String() string {
	if r.First == r.Last {
		return fmt.Sprintf("%d", r.First)
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// Partition splits [1, totalPages] into contiguous, ascending, non-overlapping
// page ranges sized for a pool of the given capacity.
//
//   - totalPages <= capacity: one range per page.
//   - totalPages <= 2*capacity: ceil(totalPages / min(capacity, 5)) pages per range.
//   - otherwise: max(3, ceil(totalPages / capacity)) pages per range.
//
// The last range may be shorter. A capacity below 1 is treated as 1.
func Partition(totalPages, capacity int) []PageRange {
	if totalPages <= 0 {
		return []PageRange{}
	}
	if capacity < 1 {
		capacity = 1
	}

	var size int
	switch {
	case totalPages <= capacity:
		size = 1
	case totalPages <= 2*capacity:
		size = ceilDiv(totalPages, min(capacity, maxSmallDocWorkers))
	default:
		size = max(minChunkPages, ceilDiv(totalPages, capacity))
	}
	return split(totalPages, size)
}

func split(totalPages, size int) []PageRange {
	out := make([]PageRange, 0, ceilDiv(totalPages, size))
	for first := 1; first <= totalPages; first += size {
		last := first + size - 1
		if last > totalPages {
			last = totalPages
		}
		out = append(out, PageRange{First: first, Last: last})
	}
	return out
}

// Validate reports whether ranges cover [1, totalPages] exactly once in
// ascending order.
func Validate(ranges []PageRange, totalPages int) error {
	next := 1
	for i, r := range ranges {
		if r.First < 1 || r.First > r.Last {
			return fmt.Errorf("range %d (%s) is malformed", i, r)
		}
		if r.First != next {
			return fmt.Errorf("range %d (%s) starts at %d, want %d", i, r, r.First, next)
		}
		next = r.Last + 1
	}
	if next != totalPages+1 {
		return fmt.Errorf("ranges end at page %d, want %d", next-1, totalPages)
	}
	return nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// Result holds the OCR text of one chunk, one entry per recognized page in
// page order. Pages that produced no text are absent.
type Result struct {
	Range PageRange `json:"range"`
	Pages []string  `json:"pages"`
}
