package registration

import (
	"fmt"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/search"
	"github.com/seqsense/pcreg/pcd/transform"
)

// ICP aligns a source cloud to a target cloud by iterating nearest point
// correspondence estimation, rejection and rigid transform estimation.
type ICP struct {
	MaxCorrespondenceDistance float32
	MaxIterations             int
	// TransformEpsilon stops the iteration when no element of the
	// incremental transform differs from the identity by more than it.
	TransformEpsilon float32
	// Rejector is applied to each correspondence set if not nil.
	Rejector Rejector
}

type ICPResult struct {
	Transform       mat.Mat4
	Iterations      int
	Converged       bool
	Correspondences Correspondences
}

// Align returns the transform from source to target, starting from guess.
// ts must search over target.
// If no correspondence is found or all of them are rejected, Align stops
// with Converged false and empty Correspondences, and returns no error.
// Rejectors implementing SourceTransformer are moved along with the source.
func (icp *ICP) Align(source, target pcd.Vec3RandomAccessor, ts search.NearestSearcher, guess mat.Mat4) (ICPResult, error) {
	res := ICPResult{Transform: guess}
	for res.Iterations < icp.MaxIterations {
		res.Iterations++

		moved := transform.TransformCloud(res.Transform, source)
		corrs := NearestPointCorrespondences(moved, ts, icp.MaxCorrespondenceDistance)
		if icp.Rejector != nil {
			rej := NewRejection(WithSourceTransform(icp.Rejector, res.Transform))
			rej.SetInputCorrespondences(corrs)
			corrs = rej.Correspondences()
		}
		res.Correspondences = corrs
		if len(corrs) == 0 {
			diagf("icp: no correspondences left at iteration %d", res.Iterations)
			return res, nil
		}

		delta, err := EstimateTransform(moved, target, corrs)
		if err != nil {
			return res, fmt.Errorf("iteration %d: %w", res.Iterations, err)
		}
		res.Transform = delta.MulAffine(res.Transform)

		if isNearIdentity(delta, icp.TransformEpsilon) {
			res.Converged = true
			break
		}
	}
	diagf("icp: %d iterations, converged=%v, %d correspondences",
		res.Iterations, res.Converged, len(res.Correspondences))
	return res, nil
}

func isNearIdentity(m mat.Mat4, eps float32) bool {
	id := mat.Identity()
	for i := range m {
		d := m[i] - id[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
