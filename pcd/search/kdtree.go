package search

import (
	"math"

	pcmat "github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"github.com/seqsense/pcgol/pc/storage"
	"github.com/seqsense/pcgol/pc/storage/kdtree"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
)

// KDTree is a NearestSearcher backed by pcgol's kd-tree.
type KDTree struct {
	kdt storage.Search
}

func NewKDTree(ra pcd.Vec3RandomAccessor) *KDTree {
	base := make(pc.Vec3Slice, ra.Len())
	for i := range base {
		base[i] = pcmat.Vec3(ra.Vec3At(i))
	}
	return &KDTree{
		kdt: kdtree.New(base),
	}
}

func (t *KDTree) Nearest(p mat.Vec3, maxRange float32) (Neighbor, bool) {
	n := t.kdt.Nearest(pcmat.Vec3(p), maxRange)
	if n.ID < 0 || n.DistSq > maxRange*maxRange {
		return Neighbor{Index: -1}, false
	}
	return Neighbor{Index: n.ID, Dist: float32(math.Sqrt(float64(n.DistSq)))}, true
}

// Radius returns the points closer than r to p, nearest first.
func (t *KDTree) Radius(p mat.Vec3, r float32) []Neighbor {
	ns := t.kdt.Range(pcmat.Vec3(p), r)
	out := make([]Neighbor, 0, len(ns))
	for _, n := range ns {
		out = append(out, Neighbor{Index: n.ID, Dist: float32(math.Sqrt(float64(n.DistSq)))})
	}
	sortNeighbors(out)
	return out
}
