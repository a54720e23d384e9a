// Package fpfh implements Fast Point Feature Histogram descriptors.
package fpfh

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/internal/parallel"
	"github.com/seqsense/pcreg/pcd/search"
)

const DefaultBins = 11

// Estimator computes FPFH descriptors.
// Zero Bins and Threads fields are replaced by the defaults.
type Estimator struct {
	Search  search.Params
	Bins    [3]int
	Threads int
}

func (e *Estimator) bins() [3]int {
	b := e.Bins
	for i := range b {
		if b[i] == 0 {
			b[i] = DefaultBins
		}
	}
	return b
}

func (e *Estimator) threads() int {
	if e.Threads > 0 {
		return e.Threads
	}
	return runtime.NumCPU()
}

// ComputeCloud computes descriptors of a cloud having x, y, z and
// normal_x, normal_y, normal_z fields.
func (e *Estimator) ComputeCloud(pc *pcd.PointCloud, s search.Searcher, indices []int) (*Histograms, error) {
	if !pc.HasField("normal_x") {
		err := fmt.Errorf("%w: cloud has no normal", pcd.ErrInvalidInput)
		opsf("rejected input: %v", err)
		return nil, err
	}
	it, err := pc.Vec3Iterator()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pcd.ErrInvalidInput, err)
	}
	nt, err := pc.NormalIterator()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pcd.ErrInvalidInput, err)
	}
	return e.Compute(it, nt, s, indices)
}

// Compute returns one descriptor per entry of indices, in the same order.
// s must search over surface. nil indices selects all surface points.
func (e *Estimator) Compute(surface, normals pcd.Vec3RandomAccessor, s search.Searcher, indices []int) (*Histograms, error) {
	return e.compute(surface, normals, s, indices, false)
}

func (e *Estimator) validate(surface, normals pcd.Vec3RandomAccessor, s search.Searcher, indices []int) error {
	if err := e.Search.Validate(); err != nil {
		return err
	}
	for i, b := range e.Bins {
		if b < 0 {
			return fmt.Errorf("%w: bins[%d]=%d", pcd.ErrInvalidInput, i, b)
		}
	}
	if surface == nil || normals == nil || s == nil {
		return fmt.Errorf("%w: surface, normals and searcher are required", pcd.ErrInvalidInput)
	}
	if normals.Len() != surface.Len() {
		return fmt.Errorf("%w: %d surface points but %d normals", pcd.ErrInvalidInput, surface.Len(), normals.Len())
	}
	return pcd.ValidateIndice(indices, surface.Len())
}

// compute runs the two passes. forceUnion disables the whole-surface
// shortcut of the candidate reduction.
func (e *Estimator) compute(surface, normals pcd.Vec3RandomAccessor, s search.Searcher, indices []int, forceUnion bool) (*Histograms, error) {
	if err := e.validate(surface, normals, s, indices); err != nil {
		opsf("rejected input: %v", err)
		return nil, err
	}
	if indices == nil {
		indices = make([]int, surface.Len())
		for i := range indices {
			indices[i] = i
		}
	}
	bins := e.bins()
	threads := e.threads()

	var candidates []int
	if !forceUnion && isPermutation(indices, surface.Len()) {
		candidates = indices
		diagf("%d points of interest cover the surface", len(indices))
	} else {
		var err error
		if candidates, err = e.candidates(surface, s, indices, threads); err != nil {
			return nil, err
		}
		diagf("%d points of interest, %d candidates out of %d surface points",
			len(indices), len(candidates), surface.Len())
	}

	// lookup maps surface index to SPFH row, -1 if not computed.
	lookup := make([]int, surface.Len())
	for i := range lookup {
		lookup[i] = -1
	}
	for row, id := range candidates {
		lookup[id] = row
	}

	spfh := newHistograms(bins, len(candidates))
	err := parallel.For(len(candidates), threads, func(lo, hi int) error {
		for row := lo; row < hi; row++ {
			id := candidates[row]
			ns := e.Search.Search(s, surface.Vec3At(id))
			computeSPFH(spfh.Row(row), bins, surface, normals, id, ns)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := newHistograms(bins, len(indices))
	err = parallel.For(len(indices), threads, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			id := indices[i]
			ns := e.Search.Search(s, surface.Vec3At(id))
			if err := weightSPFH(out.Row(i), bins, spfh, lookup, id, ns); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		opsf("%v", err)
		return nil, err
	}
	return out, nil
}

func (e *Estimator) candidates(surface pcd.Vec3RandomAccessor, s search.Searcher, indices []int, threads int) ([]int, error) {
	neighbors := make([][]search.Neighbor, len(indices))
	err := parallel.For(len(indices), threads, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			neighbors[i] = e.Search.Search(s, surface.Vec3At(indices[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	used := make([]bool, surface.Len())
	for i, id := range indices {
		used[id] = true
		for _, n := range neighbors[i] {
			if n.Index < 0 || n.Index >= len(used) {
				return nil, fmt.Errorf("searcher returned index %d out of range", n.Index)
			}
			used[n.Index] = true
		}
	}
	var out []int
	for id, u := range used {
		if u {
			out = append(out, id)
		}
	}
	return out, nil
}

func computeSPFH(hist []float32, bins [3]int, surface, normals pcd.Vec3RandomAccessor, id int, ns []search.Neighbor) {
	if len(ns) < 2 {
		return
	}
	incr := 100 / float32(len(ns)-1)
	p1, n1 := surface.Vec3At(id), normals.Vec3At(id)
	h1 := hist[:bins[0]]
	h2 := hist[bins[0] : bins[0]+bins[1]]
	h3 := hist[bins[0]+bins[1]:]
	for _, n := range ns {
		if n.Index == id {
			continue
		}
		f1, f2, f3, _, ok := PairFeatures(p1, n1, surface.Vec3At(n.Index), normals.Vec3At(n.Index))
		if !ok {
			continue
		}
		h1[binIndex(f1, -math.Pi, math.Pi, bins[0])] += incr
		h2[binIndex(f2, -1, 1, bins[1])] += incr
		h3[binIndex(f3, -1, 1, bins[2])] += incr
	}
}

var errMissingSPFH = errors.New("internal error: neighbor has no SPFH")

func weightSPFH(hist []float32, bins [3]int, spfh *Histograms, lookup []int, id int, ns []search.Neighbor) error {
	self := lookup[id]
	if self < 0 {
		return fmt.Errorf("%w: point %d", errMissingSPFH, id)
	}
	copy(hist, spfh.Row(self))
	for _, n := range ns {
		if n.Dist == 0 {
			continue
		}
		if n.Index < 0 || n.Index >= len(lookup) || lookup[n.Index] < 0 {
			return fmt.Errorf("%w: neighbor %d of point %d", errMissingSPFH, n.Index, id)
		}
		w := 1 / n.Dist
		for i, v := range spfh.Row(lookup[n.Index]) {
			hist[i] += w * v
		}
	}
	offset := 0
	for _, b := range bins {
		normalize(hist[offset : offset+b])
		offset += b
	}
	return nil
}

func normalize(h []float32) {
	var sum float32
	for _, v := range h {
		sum += v
	}
	if sum == 0 {
		return
	}
	scale := 100 / sum
	for i := range h {
		h[i] *= scale
	}
}

func isPermutation(indices []int, n int) bool {
	if len(indices) != n {
		return false
	}
	seen := make([]bool, n)
	for _, id := range indices {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
