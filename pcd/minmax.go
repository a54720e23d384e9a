package pcd

import (
	"errors"
	"math"

	"github.com/seqsense/pcreg/mat"
)

func MinMaxVec3(ra Vec3RandomAccessor) (mat.Vec3, mat.Vec3, error) {
	n := ra.Len()
	if n == 0 {
		return mat.Vec3{}, mat.Vec3{}, errors.New("no point")
	}
	min := mat.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := mat.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for j := 0; j < n; j++ {
		v := ra.Vec3At(j)
		for i := range v {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max, nil
}

// Centroid returns the mean position of the points.
// Accumulation is done in float64 to keep precision on large clouds.
func Centroid(ra Vec3RandomAccessor) ([3]float64, error) {
	n := ra.Len()
	if n == 0 {
		return [3]float64{}, errors.New("no point")
	}
	var sum [3]float64
	for j := 0; j < n; j++ {
		v := ra.Vec3At(j)
		sum[0] += float64(v[0])
		sum[1] += float64(v[1])
		sum[2] += float64(v[2])
	}
	return [3]float64{sum[0] / float64(n), sum[1] / float64(n), sum[2] / float64(n)}, nil
}
