package xsd

import (
	"iter"
	"sort"
)

// CodePointSet is a set of Unicode code points, used by the pattern facet to
// resolve named blocks and categories. Implementations are expected to be
// interval-compressed.
type CodePointSet interface {
	Contains(r rune) bool
	Ranges() [][2]rune
}

// CodePointResolver maps a block or category name ("L", "Nd", "IsBasicLatin")
// to a code point set. It is an external collaborator of the pattern
// translator; a nil resolver leaves named classes unresolved.
type CodePointResolver func(name string) (CodePointSet, bool)

// UnicodeSubset is an interval-compressed code point set.
type UnicodeSubset struct {
	ranges [][2]rune
}

// NewUnicodeSubset builds a subset from intervals, which are normalized and
// merged.
func NewUnicodeSubset(intervals ...[2]rune) *UnicodeSubset {
	rs := make([][2]rune, 0, len(intervals))
	for _, iv := range intervals {
		if iv[0] > iv[1] {
			iv[0], iv[1] = iv[1], iv[0]
		}
		rs = append(rs, iv)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i][0] < rs[j][0] })
	merged := rs[:0]
	for _, iv := range rs {
		if n := len(merged); n > 0 && iv[0] <= merged[n-1][1]+1 {
			if iv[1] > merged[n-1][1] {
				merged[n-1][1] = iv[1]
			}
			continue
		}
		merged = append(merged, iv)
	}
	return &UnicodeSubset{ranges: merged}
}

// Contains reports set membership.
func (s *UnicodeSubset) Contains(r rune) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i][1] >= r })
	return i < len(s.ranges) && s.ranges[i][0] <= r
}

// Ranges returns the interval-compressed representation.
func (s *UnicodeSubset) Ranges() [][2]rune {
	return s.ranges
}

// All iterates every member code point in order.
func (s *UnicodeSubset) All() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for _, iv := range s.ranges {
			for r := iv[0]; r <= iv[1]; r++ {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Len returns the number of code points in the set.
func (s *UnicodeSubset) Len() int {
	n := 0
	for _, iv := range s.ranges {
		n += int(iv[1]-iv[0]) + 1
	}
	return n
}
