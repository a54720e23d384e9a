// Package search provides neighbor queries over point clouds.
package search

import (
	"fmt"
	"sort"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
)

// Neighbor is a search result. Dist is the Euclidean distance to the query point.
type Neighbor struct {
	Index int
	Dist  float32
}

// Searcher answers neighbor queries over a fixed point cloud.
// Results are sorted by distance, then by index, and must be
// deterministic for a given index build.
// Implementations must be safe for concurrent use.
type Searcher interface {
	Radius(p mat.Vec3, r float32) []Neighbor
	KNearest(p mat.Vec3, k int) []Neighbor
}

// NearestSearcher returns the closest point within maxRange.
type NearestSearcher interface {
	Nearest(p mat.Vec3, maxRange float32) (Neighbor, bool)
}

// Params selects the neighborhood definition.
// Exactly one of K and Radius must be set.
type Params struct {
	K      int
	Radius float32
}

func (p Params) Validate() error {
	switch {
	case p.K < 0 || p.Radius < 0:
		return fmt.Errorf("%w: negative search parameter (k=%d, radius=%f)", pcd.ErrInvalidInput, p.K, p.Radius)
	case p.K > 0 && p.Radius > 0:
		return fmt.Errorf("%w: both k and radius are set", pcd.ErrInvalidInput)
	case p.K == 0 && p.Radius == 0:
		return fmt.Errorf("%w: neither k nor radius is set", pcd.ErrInvalidInput)
	}
	return nil
}

// Search runs the configured query on s.
func (p Params) Search(s Searcher, q mat.Vec3) []Neighbor {
	if p.K > 0 {
		return s.KNearest(q, p.K)
	}
	return s.Radius(q, p.Radius)
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Dist != ns[j].Dist {
			return ns[i].Dist < ns[j].Dist
		}
		return ns[i].Index < ns[j].Index
	})
}

// BruteForce is a Searcher scanning all points.
// Useful as a reference and for very small clouds.
type BruteForce struct {
	pcd.Vec3RandomAccessor
}

func (b BruteForce) Radius(p mat.Vec3, r float32) []Neighbor {
	var out []Neighbor
	for i := 0; i < b.Len(); i++ {
		if d := b.Vec3At(i).Sub(p).Norm(); d <= r {
			out = append(out, Neighbor{Index: i, Dist: d})
		}
	}
	sortNeighbors(out)
	return out
}

func (b BruteForce) KNearest(p mat.Vec3, k int) []Neighbor {
	out := make([]Neighbor, b.Len())
	for i := range out {
		out[i] = Neighbor{Index: i, Dist: b.Vec3At(i).Sub(p).Norm()}
	}
	sortNeighbors(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}
