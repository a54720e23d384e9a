package pcd

import (
	"github.com/seqsense/pcreg/mat"
)

type Vec3RandomAccessor interface {
	Vec3At(int) mat.Vec3
	Len() int
}

// Vec3Slice is an in-memory Vec3RandomAccessor.
type Vec3Slice []mat.Vec3

func (s Vec3Slice) Vec3At(i int) mat.Vec3 {
	return s[i]
}

func (s Vec3Slice) Len() int {
	return len(s)
}
