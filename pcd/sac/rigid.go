package sac

import (
	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/transform"
)

const minTriangleAreaSq = 1e-8

// RigidModel fits rigid transforms to point pairs (src[SrcIdx[i]], tgt[TgtIdx[i]]).
// Samples are indices into the pair lists.
type RigidModel struct {
	Source, Target pcd.Vec3RandomAccessor
	SrcIdx, TgtIdx []int
	// Threshold is the inlier distance used to score the models.
	Threshold float32
}

func (RigidModel) NumRange() (min, max int) {
	return 3, 3
}

func (m *RigidModel) Fit(ids []int) (ModelCoefficients, bool) {
	if len(ids) != 3 || ids[0] == ids[1] || ids[1] == ids[2] || ids[0] == ids[2] {
		return nil, false
	}
	var srcIdx, tgtIdx [3]int
	for i, id := range ids {
		srcIdx[i], tgtIdx[i] = m.SrcIdx[id], m.TgtIdx[id]
	}
	// Rotation around the line of collinear samples is undetermined.
	p0 := m.Source.Vec3At(srcIdx[0])
	v1 := m.Source.Vec3At(srcIdx[1]).Sub(p0)
	v2 := m.Source.Vec3At(srcIdx[2]).Sub(p0)
	if v1.CrossNormSq(v2) < minTriangleAreaSq {
		return nil, false
	}

	trans, err := transform.EstimateRigidTransformSVDIndices(m.Source, srcIdx[:], m.Target, tgtIdx[:])
	if err != nil {
		return nil, false
	}
	return &rigidModelCoefficients{model: m, trans: trans}, true
}

type rigidModelCoefficients struct {
	model *RigidModel
	trans mat.Mat4
}

// RigidTransform is implemented by the coefficients of RigidModel.
type RigidTransform interface {
	Transform() mat.Mat4
}

func (c *rigidModelCoefficients) Transform() mat.Mat4 {
	return c.trans
}

func (c *rigidModelCoefficients) Evaluate() int {
	var n int
	for i := range c.model.SrcIdx {
		if c.isIn(i, c.model.Threshold) {
			n++
		}
	}
	return n
}

func (c *rigidModelCoefficients) Inliers(d float32) []int {
	var ids []int
	for i := range c.model.SrcIdx {
		if c.isIn(i, d) {
			ids = append(ids, i)
		}
	}
	return ids
}

func (c *rigidModelCoefficients) isIn(i int, d float32) bool {
	p := c.trans.TransformAffine(c.model.Source.Vec3At(c.model.SrcIdx[i]))
	return p.Sub(c.model.Target.Vec3At(c.model.TgtIdx[i])).NormSq() <= d*d
}
