// Package normal estimates surface normals by principal component analysis
// of point neighborhoods.
package normal

import (
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"

	pmat "github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/internal/parallel"
	"github.com/seqsense/pcreg/pcd/search"
)

// DefaultK is the neighborhood size used when Search is not set.
const DefaultK = 20

// Estimator computes unit normals and surface curvatures.
// Normals are flipped to face Viewpoint.
type Estimator struct {
	Search    search.Params
	Viewpoint pmat.Vec3
	Threads   int
}

// Result holds one normal and one curvature per point of interest.
// Points with fewer than 3 neighbors get a zero normal and curvature.
type Result struct {
	Normals   pcd.Vec3Slice
	Curvature []float32
	// Invalid is the number of points without a normal.
	Invalid int
}

func (e *Estimator) params() search.Params {
	if e.Search == (search.Params{}) {
		return search.Params{K: DefaultK}
	}
	return e.Search
}

func (e *Estimator) threads() int {
	if e.Threads > 0 {
		return e.Threads
	}
	return runtime.NumCPU()
}

// Compute estimates the normals of surface at indices.
// s must search over surface. nil indices selects all surface points.
func (e *Estimator) Compute(surface pcd.Vec3RandomAccessor, s search.Searcher, indices []int) (*Result, error) {
	params := e.params()
	if err := params.Validate(); err != nil {
		opsf("rejected input: %v", err)
		return nil, err
	}
	if surface == nil || s == nil {
		err := fmt.Errorf("%w: surface and searcher are required", pcd.ErrInvalidInput)
		opsf("rejected input: %v", err)
		return nil, err
	}
	if err := pcd.ValidateIndice(indices, surface.Len()); err != nil {
		opsf("rejected input: %v", err)
		return nil, err
	}
	n := surface.Len()
	if indices != nil {
		n = len(indices)
	}

	res := &Result{
		Normals:   make(pcd.Vec3Slice, n),
		Curvature: make([]float32, n),
	}
	valid := make([]bool, n)
	err := parallel.For(n, e.threads(), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			id := i
			if indices != nil {
				id = indices[i]
			}
			p := surface.Vec3At(id)
			nv, c, ok := fit(surface, params.Search(s, p))
			if !ok {
				continue
			}
			if nv.Dot(e.Viewpoint.Sub(p)) < 0 {
				nv = nv.Mul(-1)
			}
			res.Normals[i], res.Curvature[i], valid[i] = nv, c, true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, v := range valid {
		if !v {
			res.Invalid++
		}
	}
	if res.Invalid > 0 {
		opsf("%d/%d points have less than 3 neighbors", res.Invalid, n)
	}
	diagf("estimated %d normals", n-res.Invalid)
	return res, nil
}

// ComputeCloud estimates the normals of all points of pc and writes them
// to its normal_x, normal_y and normal_z fields.
func (e *Estimator) ComputeCloud(pc *pcd.PointCloud, s search.Searcher) (*Result, error) {
	if !pc.HasField("normal_x") {
		err := fmt.Errorf("%w: cloud has no normal field", pcd.ErrInvalidInput)
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
	res, err := e.Compute(it, s, nil)
	if err != nil {
		return nil, err
	}
	for _, n := range res.Normals {
		nt.SetVec3(n)
		nt.Incr()
	}
	return res, nil
}

// fit returns the eigenvector of the smallest eigenvalue of the
// neighborhood covariance and the surface variation.
func fit(surface pcd.Vec3RandomAccessor, ns []search.Neighbor) (pmat.Vec3, float32, bool) {
	if len(ns) < 3 {
		return pmat.Vec3{}, 0, false
	}
	var c [3]float64
	for _, n := range ns {
		p := surface.Vec3At(n.Index)
		for k := range c {
			c[k] += float64(p[k])
		}
	}
	for k := range c {
		c[k] /= float64(len(ns))
	}
	cov := make([]float64, 9)
	for _, n := range ns {
		p := surface.Vec3At(n.Index)
		d := [3]float64{float64(p[0]) - c[0], float64(p[1]) - c[1], float64(p[2]) - c[2]}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[3*i+j] += d[i] * d[j]
			}
		}
	}

	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(3, cov), true) {
		return pmat.Vec3{}, 0, false
	}
	// Ascending order.
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	nv := pmat.Vec3{float32(vecs.At(0, 0)), float32(vecs.At(1, 0)), float32(vecs.At(2, 0))}
	norm := nv.Norm()
	if norm == 0 || math.IsNaN(float64(norm)) {
		return pmat.Vec3{}, 0, false
	}
	var curvature float32
	if sum := vals[0] + vals[1] + vals[2]; sum > 0 {
		curvature = float32(math.Max(vals[0], 0) / sum)
	}
	return nv.Mul(1 / norm), curvature, true
}
