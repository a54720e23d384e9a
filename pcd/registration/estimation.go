package registration

import (
	"fmt"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/features/fpfh"
	"github.com/seqsense/pcreg/pcd/search"
	"github.com/seqsense/pcreg/pcd/transform"
)

// NearestPointCorrespondences pairs each source point with the closest
// target point within maxDist. Source points without a match are skipped.
func NearestPointCorrespondences(source pcd.Vec3RandomAccessor, target search.NearestSearcher, maxDist float32) Correspondences {
	var out Correspondences
	for i := 0; i < source.Len(); i++ {
		n, ok := target.Nearest(source.Vec3At(i), maxDist)
		if !ok {
			continue
		}
		out = append(out, Correspondence{Query: i, Match: n.Index, Distance: n.Dist})
	}
	return out
}

// NearestFeatureCorrespondences pairs each source descriptor with the target
// descriptor of the smallest L1 distance. Ties go to the lower target index.
func NearestFeatureCorrespondences(source, target *fpfh.Histograms) (Correspondences, error) {
	if source.Bins != target.Bins {
		err := fmt.Errorf("%w: histogram bins %v and %v", pcd.ErrDimensionMismatch, source.Bins, target.Bins)
		opsf("%v", err)
		return nil, err
	}
	nTgt := target.Len()
	if nTgt == 0 {
		return nil, nil
	}
	out := make(Correspondences, source.Len())
	for i := range out {
		row := source.Row(i)
		best := Correspondence{Query: i, Match: 0, Distance: fpfh.L1Distance(row, target.Row(0))}
		for j := 1; j < nTgt; j++ {
			if d := fpfh.L1Distance(row, target.Row(j)); d < best.Distance {
				best.Match, best.Distance = j, d
			}
		}
		out[i] = best
	}
	return out, nil
}

// EstimateTransform computes the rigid transform aligning the query points
// of the correspondences in source to their match points in target.
func EstimateTransform(source, target pcd.Vec3RandomAccessor, c Correspondences) (mat.Mat4, error) {
	return transform.EstimateRigidTransformSVDIndices(source, c.QueryIndices(), target, c.MatchIndices())
}
