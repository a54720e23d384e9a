package fpfh

import (
	"math"

	"github.com/seqsense/pcreg/mat"
)

// PairFeatures computes the angular relations between two oriented points
// in the Darboux frame u = n1, v = (p2 - p1) x u, w = u x v.
//
//	f1: angle of n2 in the (u, w) plane, in [-π, π]
//	f2: v · n2, in [-1, 1]
//	f3: cosine between the source normal and the connecting line, in [-1, 1]
//	f4: distance between the points
//
// The point whose normal makes the smaller angle with the connecting line
// is used as the source, so the result does not depend on the order of the
// arguments. ok is false for coincident points or when the normal is
// parallel to the connecting line.
func PairFeatures(p1, n1, p2, n2 mat.Vec3) (f1, f2, f3, f4 float32, ok bool) {
	dp2p1 := p2.Sub(p1)
	f4 = dp2p1.Norm()
	if f4 == 0 {
		return 0, 0, 0, 0, false
	}

	u, n := n1, n2
	angle1 := n1.Dot(dp2p1) / f4
	angle2 := n2.Dot(dp2p1) / f4
	if acos(abs(angle1)) > acos(abs(angle2)) {
		u, n = n2, n1
		dp2p1 = dp2p1.Mul(-1)
		f3 = -angle2
	} else {
		f3 = angle1
	}

	v := dp2p1.Cross(u)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 0, 0, 0, 0, false
	}
	v = v.Mul(1 / vNorm)
	w := u.Cross(v)

	f2 = v.Dot(n)
	f1 = float32(math.Atan2(float64(w.Dot(n)), float64(u.Dot(n))))
	return f1, f2, f3, f4, true
}

func acos(a float32) float32 {
	if a > 1 {
		a = 1
	}
	return float32(math.Acos(float64(a)))
}

func abs(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// binIndex maps v in [min, max] to one of n bins, clamping out of range values.
func binIndex(v, min, max float32, n int) int {
	i := int(math.Floor(float64(n) * float64(v-min) / float64(max-min)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
