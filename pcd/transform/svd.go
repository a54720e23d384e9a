// Package transform estimates rigid transforms between corresponding point sets.
package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	pmat "github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
)

const minPoints = 3

// EstimateRigidTransformSVD returns the rigid transform minimizing the
// squared distances between src[i] transformed and tgt[i].
//
// On error, the identity matrix is returned. Mismatching lengths give
// pcd.ErrDimensionMismatch, less than three pairs give pcd.ErrDegenerate.
// Collinear pairs are accepted; the rotation around their line is then
// arbitrary.
func EstimateRigidTransformSVD(src, tgt pcd.Vec3RandomAccessor) (pmat.Mat4, error) {
	if src.Len() != tgt.Len() {
		return mismatch(src.Len(), tgt.Len())
	}
	return estimate(src, tgt)
}

// EstimateRigidTransformSVDIndices is EstimateRigidTransformSVD over the
// pairs (src[srcIdx[i]], tgt[tgtIdx[i]]).
func EstimateRigidTransformSVDIndices(src pcd.Vec3RandomAccessor, srcIdx []int, tgt pcd.Vec3RandomAccessor, tgtIdx []int) (pmat.Mat4, error) {
	if len(srcIdx) != len(tgtIdx) {
		return mismatch(len(srcIdx), len(tgtIdx))
	}
	if err := validateIndice(srcIdx, src, tgtIdx, tgt); err != nil {
		return pmat.Identity(), err
	}
	return estimate(
		pcd.NewIndiceVec3RandomAccessor(src, srcIdx),
		pcd.NewIndiceVec3RandomAccessor(tgt, tgtIdx),
	)
}

// EstimateRigidTransformSVDSourceIndices is EstimateRigidTransformSVD over the
// pairs (src[srcIdx[i]], tgt[i]).
func EstimateRigidTransformSVDSourceIndices(src pcd.Vec3RandomAccessor, srcIdx []int, tgt pcd.Vec3RandomAccessor) (pmat.Mat4, error) {
	if len(srcIdx) != tgt.Len() {
		return mismatch(len(srcIdx), tgt.Len())
	}
	if err := validateIndice(srcIdx, src, nil, nil); err != nil {
		return pmat.Identity(), err
	}
	return estimate(pcd.NewIndiceVec3RandomAccessor(src, srcIdx), tgt)
}

func mismatch(nSrc, nTgt int) (pmat.Mat4, error) {
	err := fmt.Errorf("%w: %d source points but %d target points", pcd.ErrDimensionMismatch, nSrc, nTgt)
	opsf("%v", err)
	return pmat.Identity(), err
}

func validateIndice(srcIdx []int, src pcd.Vec3RandomAccessor, tgtIdx []int, tgt pcd.Vec3RandomAccessor) error {
	if err := pcd.ValidateIndice(srcIdx, src.Len()); err != nil {
		opsf("source: %v", err)
		return err
	}
	if tgt == nil {
		return nil
	}
	if err := pcd.ValidateIndice(tgtIdx, tgt.Len()); err != nil {
		opsf("target: %v", err)
		return err
	}
	return nil
}

func estimate(src, tgt pcd.Vec3RandomAccessor) (pmat.Mat4, error) {
	n := src.Len()
	if n < minPoints {
		err := fmt.Errorf("%w: %d pairs, at least %d required", pcd.ErrDegenerate, n, minPoints)
		opsf("%v", err)
		return pmat.Identity(), err
	}

	cs, err := pcd.Centroid(src)
	if err != nil {
		return pmat.Identity(), err
	}
	ct, err := pcd.Centroid(tgt)
	if err != nil {
		return pmat.Identity(), err
	}

	// Cross-covariance of the demeaned sets.
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < n; i++ {
		ps, pt := src.Vec3At(i), tgt.Vec3At(i)
		for r := 0; r < 3; r++ {
			ds := float64(ps[r]) - cs[r]
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+ds*(float64(pt[c])-ct[c]))
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		err := fmt.Errorf("%w: SVD did not converge", pcd.ErrDegenerate)
		opsf("%v", err)
		return pmat.Identity(), err
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	if mat.Det(&u)*mat.Det(&v) < 0 {
		// Reflection; flip the axis of the smallest singular value.
		diagf("reflection corrected, singular values %v", svd.Values(nil))
		for r := 0; r < 3; r++ {
			v.Set(r, 2, -v.At(r, 2))
		}
	}

	var rot mat.Dense
	rot.Mul(&v, u.T())

	var r pmat.Mat3
	var t pmat.Vec3
	for row := 0; row < 3; row++ {
		rc := 0.0
		for col := 0; col < 3; col++ {
			r[3*col+row] = float32(rot.At(row, col))
			rc += rot.At(row, col) * cs[col]
		}
		t[row] = float32(ct[row] - rc)
	}
	diagf("estimated from %d pairs", n)
	return pmat.NewRigid(r, t), nil
}

// TransformCloud applies the rigid transform m to all points of ra.
func TransformCloud(m pmat.Mat4, ra pcd.Vec3RandomAccessor) pcd.Vec3Slice {
	out := make(pcd.Vec3Slice, ra.Len())
	for i := range out {
		out[i] = m.TransformAffine(ra.Vec3At(i))
	}
	return out
}

// RotateNormals applies the rotation part of m to each vector of ra.
func RotateNormals(m pmat.Mat4, ra pcd.Vec3RandomAccessor) pcd.Vec3Slice {
	r := m.Rotation()
	out := make(pcd.Vec3Slice, ra.Len())
	for i := range out {
		out[i] = r.MulVec3(ra.Vec3At(i))
	}
	return out
}
