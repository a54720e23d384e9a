package pcd

import (
	"fmt"

	"github.com/seqsense/pcreg/mat"
)

type indiceVec3RandomAccessor struct {
	indice []int
	ra     Vec3RandomAccessor
}

func (i *indiceVec3RandomAccessor) Len() int {
	return len(i.indice)
}

func (i *indiceVec3RandomAccessor) Vec3At(j int) mat.Vec3 {
	return i.ra.Vec3At(i.indice[j])
}

// NewIndiceVec3RandomAccessor restricts ra to the ordered index subset
// without copying the points.
func NewIndiceVec3RandomAccessor(ra Vec3RandomAccessor, indice []int) Vec3RandomAccessor {
	return &indiceVec3RandomAccessor{
		ra:     ra,
		indice: indice,
	}
}

// ValidateIndice checks that all indices refer to a point of a cloud with n points.
func ValidateIndice(indice []int, n int) error {
	for i, id := range indice {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: index[%d]=%d is out of range [0, %d)", ErrInvalidInput, i, id, n)
		}
	}
	return nil
}
