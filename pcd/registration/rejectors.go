package registration

import (
	"math"
	"math/rand"
	"sort"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/sac"
	"github.com/seqsense/pcreg/pcd/transform"
)

// DistanceRejector keeps correspondences not farther than MaxDistance.
type DistanceRejector struct {
	MaxDistance float32
}

func (DistanceRejector) Name() string { return "distance" }

func (r DistanceRejector) RemainingCorrespondences(original Correspondences) Correspondences {
	var out Correspondences
	for _, c := range original {
		if c.Distance <= r.MaxDistance {
			out = append(out, c)
		}
	}
	return out
}

// OneToOneRejector keeps the closest correspondence of each target point.
// The order of the input is preserved.
type OneToOneRejector struct{}

func (OneToOneRejector) Name() string { return "one_to_one" }

func (OneToOneRejector) RemainingCorrespondences(original Correspondences) Correspondences {
	best := make(map[int]int, len(original))
	for i, c := range original {
		if j, ok := best[c.Match]; !ok || LessDistance(c, original[j]) {
			best[c.Match] = i
		}
	}
	var out Correspondences
	for i, c := range original {
		if best[c.Match] == i {
			out = append(out, c)
		}
	}
	return out
}

// SurfaceNormalRejector keeps correspondences whose normals differ by at most MaxAngle radians.
// Normals must be unit length.
type SurfaceNormalRejector struct {
	SourceNormals pcd.Vec3RandomAccessor
	TargetNormals pcd.Vec3RandomAccessor
	MaxAngle      float32
}

func (SurfaceNormalRejector) Name() string { return "surface_normal" }

// WithSourceTransform rotates the source normals by m.
func (r SurfaceNormalRejector) WithSourceTransform(m mat.Mat4) Rejector {
	if r.SourceNormals != nil {
		r.SourceNormals = transform.RotateNormals(m, r.SourceNormals)
	}
	return r
}

func (r SurfaceNormalRejector) RemainingCorrespondences(original Correspondences) Correspondences {
	if r.SourceNormals == nil || r.TargetNormals == nil {
		opsf("surface_normal: normals not set, keeping all correspondences")
		return original.Clone()
	}
	minCos := float32(math.Cos(float64(r.MaxAngle)))
	var out Correspondences
	var invalid int
	for _, c := range original {
		if c.Query < 0 || c.Query >= r.SourceNormals.Len() || c.Match < 0 || c.Match >= r.TargetNormals.Len() {
			invalid++
			continue
		}
		if r.SourceNormals.Vec3At(c.Query).Dot(r.TargetNormals.Vec3At(c.Match)) >= minCos {
			out = append(out, c)
		}
	}
	if invalid > 0 {
		opsf("surface_normal: %d correspondences out of the normal range dropped", invalid)
	}
	return out
}

// MedianDistanceRejector keeps correspondences not farther than Factor times
// the median distance.
type MedianDistanceRejector struct {
	Factor float32
}

func (MedianDistanceRejector) Name() string { return "median_distance" }

func (r MedianDistanceRejector) RemainingCorrespondences(original Correspondences) Correspondences {
	if len(original) == 0 {
		return nil
	}
	dists := make([]float64, len(original))
	for i, c := range original {
		dists[i] = float64(c.Distance)
	}
	sort.Float64s(dists)
	median := float32(dists[len(dists)/2])
	diagf("median_distance: median %f", median)
	return DistanceRejector{MaxDistance: r.Factor * median}.RemainingCorrespondences(original)
}

// TrimmedRejector keeps the Ratio fraction of the closest correspondences,
// and at least MinCorrespondences of them. The result is sorted by distance.
type TrimmedRejector struct {
	Ratio              float32
	MinCorrespondences int
}

func (TrimmedRejector) Name() string { return "trimmed" }

func (r TrimmedRejector) RemainingCorrespondences(original Correspondences) Correspondences {
	n := int(r.Ratio * float32(len(original)))
	if n < r.MinCorrespondences {
		n = r.MinCorrespondences
	}
	if n > len(original) {
		n = len(original)
	}
	if n <= 0 {
		return nil
	}
	out := original.Clone()
	SortByDistance(out)
	return out[:n:n]
}

// SampleConsensusRejector keeps the correspondences consistent with the
// rigid transform found by RANSAC.
// The random sequence is derived from Seed, so results are reproducible.
type SampleConsensusRejector struct {
	Source, Target  pcd.Vec3RandomAccessor
	InlierThreshold float32
	MaxIterations   int
	Seed            int64
}

func (SampleConsensusRejector) Name() string { return "sample_consensus" }

func (r SampleConsensusRejector) RemainingCorrespondences(original Correspondences) Correspondences {
	out, _, _ := r.Estimate(original)
	return out
}

// Estimate returns the inlier correspondences and the best transform.
// If no model is found, original is returned as is with ok=false.
func (r SampleConsensusRejector) Estimate(original Correspondences) (Correspondences, mat.Mat4, bool) {
	if len(original) < 3 {
		opsf("sample_consensus: %d correspondences, at least 3 required", len(original))
		return original.Clone(), mat.Identity(), false
	}
	for _, c := range original {
		if c.Query < 0 || c.Query >= r.Source.Len() || c.Match < 0 || c.Match >= r.Target.Len() {
			opsf("sample_consensus: correspondence %v out of range", c)
			return original.Clone(), mat.Identity(), false
		}
	}
	model := &sac.RigidModel{
		Source:    r.Source,
		Target:    r.Target,
		SrcIdx:    original.QueryIndices(),
		TgtIdx:    original.MatchIndices(),
		Threshold: r.InlierThreshold,
	}
	s := sac.New(sac.NewRandomSampler(len(original), rand.New(rand.NewSource(r.Seed))), model)
	if !s.Compute(r.MaxIterations) {
		opsf("sample_consensus: no model found, keeping all correspondences")
		return original.Clone(), mat.Identity(), false
	}
	coeff := s.Coefficients()
	inliers := coeff.Inliers(r.InlierThreshold)
	out := make(Correspondences, len(inliers))
	for i, id := range inliers {
		out[i] = original[id]
	}
	return out, coeff.(sac.RigidTransform).Transform(), true
}
