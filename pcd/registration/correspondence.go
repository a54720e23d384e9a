// Package registration provides correspondence handling for point cloud alignment.
package registration

import (
	"sort"
)

// Correspondence pairs the Query-th source point with the Match-th target point.
// Distance is the quality score, lower is better.
type Correspondence struct {
	Query    int
	Match    int
	Distance float32
}

type Correspondences []Correspondence

// LessDistance orders correspondences by ascending distance.
func LessDistance(a, b Correspondence) bool {
	return a.Distance < b.Distance
}

// SortByDistance sorts c in place by ascending distance, keeping the order of ties.
func SortByDistance(c Correspondences) {
	sort.SliceStable(c, func(i, j int) bool {
		return LessDistance(c[i], c[j])
	})
}

// SortByQuery sorts c in place by query index, then by match index.
func SortByQuery(c Correspondences) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Query != c[j].Query {
			return c[i].Query < c[j].Query
		}
		return c[i].Match < c[j].Match
	})
}

func (c Correspondences) QueryIndices() []int {
	out := make([]int, len(c))
	for i := range c {
		out[i] = c[i].Query
	}
	return out
}

func (c Correspondences) MatchIndices() []int {
	out := make([]int, len(c))
	for i := range c {
		out[i] = c[i].Match
	}
	return out
}

func (c Correspondences) Clone() Correspondences {
	if c == nil {
		return nil
	}
	return append(Correspondences{}, c...)
}
