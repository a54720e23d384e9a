package mat

import (
	"math"
	"testing"
)

func scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

func TestMul(t *testing.T) {
	m0 := Translate(0.1, 0.2, 0.3)
	m1 := scale(1.1, 1.2, 1.3)
	m2 := Rotate(1, 0, 0, 0.1)
	m3 := Rotate(0, 1, 0, 0.1)
	m4 := Rotate(0, 0, 1, 0.1)

	r := m0.MulAffine(m1).MulAffine(m2).MulAffine(m3).MulAffine(m4)
	rNaive := m0.Mul(m1).Mul(m2).Mul(m3).Mul(m4)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a := j*4 + i
			diff := r[a] - rNaive[a]
			if diff < -0.01 || 0.01 < diff {
				t.Errorf("m(%d, %d) expected to be %0.3f, got %0.3f",
					i, j, rNaive[a], r[a],
				)
			}
		}
	}
}

func TestInvAffine(t *testing.T) {
	m := Translate(0.1, 0.2, 0.3).MulAffine(Rotate(1, 0, 0, 0.5)).MulAffine(Rotate(0, 0, 1, -1.2))
	mi := m.InvAffine()

	diag := m.Mul(mi)
	id := Identity()
	for i := range diag {
		if d := diag[i] - id[i]; d < -0.0001 || 0.0001 < d {
			t.Errorf("m[%d]: expected %0.3f, got %0.3f", i, id[i], diag[i])
		}
	}
}

func transformNaive(m Mat4, a Vec3) Vec3 {
	var out Vec3
	in := [4]float32{a[0], a[1], a[2], 1}
	for i := 0; i < 3; i++ {
		var sum float32
		for k := 0; k < 4; k++ {
			sum += m[4*k+i] * in[k]
		}
		out[i] = sum
	}
	return out
}

func TestTransformAffine(t *testing.T) {
	m0 := Translate(0.1, 0.2, 0.3)
	m1 := scale(1.1, 1.2, 1.3)
	m2 := Rotate(1, 0, 0, 0.1)
	m3 := Rotate(0, 1, 0, 0.1)
	m4 := Rotate(0, 0, 1, 0.1)

	m := m0.Mul(m1).Mul(m2).Mul(m3).Mul(m4)

	in := NewVec3(1, 2, 3)
	vAffine := m.TransformAffine(in)
	vNaive := transformNaive(m, in)

	if !vAffine.Equal(vNaive) {
		t.Errorf("Expected %v, got %v", vNaive, vAffine)
	}
}

func TestRotate(t *testing.T) {
	testCases := map[string]struct {
		axis     Vec3
		ang      float32
		in       Vec3
		expected Vec3
	}{
		"ZQuarter": {
			axis:     Vec3{0, 0, 1},
			ang:      math.Pi / 2,
			in:       Vec3{1, 0, 0},
			expected: Vec3{0, 1, 0},
		},
		"XQuarter": {
			axis:     Vec3{1, 0, 0},
			ang:      math.Pi / 2,
			in:       Vec3{0, 1, 0},
			expected: Vec3{0, 0, 1},
		},
		"YQuarter": {
			axis:     Vec3{0, 1, 0},
			ang:      math.Pi / 2,
			in:       Vec3{0, 0, 1},
			expected: Vec3{1, 0, 0},
		},
		"ZHalf": {
			axis:     Vec3{0, 0, 1},
			ang:      math.Pi,
			in:       Vec3{1, 2, 3},
			expected: Vec3{-1, -2, 3},
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			m := Rotate(tt.axis[0], tt.axis[1], tt.axis[2], tt.ang)
			if v := m.TransformAffine(tt.in); !v.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, v)
			}
			if !m.IsRigid(1e-5) {
				t.Errorf("Rotation must be rigid: %v", m)
			}
		})
	}
}

func TestIsRigid(t *testing.T) {
	testCases := map[string]struct {
		m        Mat4
		expected bool
	}{
		"Identity":   {m: Identity(), expected: true},
		"Translate":  {m: Translate(1, 2, 3), expected: true},
		"Rotate":     {m: Rotate(0, 0.6, 0.8, 1.0).MulAffine(Translate(1, 2, 3)), expected: true},
		"Scale":      {m: scale(2, 1, 1), expected: false},
		"Reflection": {m: scale(1, 1, -1), expected: false},
		"Projective": {m: Mat4{1, 0, 0, 0.5, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, expected: false},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			if r := tt.m.IsRigid(1e-5); r != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, r)
			}
		})
	}
}

func TestNewRigid(t *testing.T) {
	r := Rotate(0, 0, 1, 0.3).Rotation()
	m := NewRigid(r, Vec3{1, 2, 3})
	if tr := m.Translation(); !tr.Equal(Vec3{1, 2, 3}) {
		t.Errorf("Expected translation (1, 2, 3), got %v", tr)
	}
	if m.Rotation() != r {
		t.Errorf("Expected rotation %v, got %v", r, m.Rotation())
	}
	expected := Translate(1, 2, 3).Mul(Rotate(0, 0, 1, 0.3))
	for i := range m {
		if d := m[i] - expected[i]; d < -1e-6 || 1e-6 < d {
			t.Fatalf("Expected %v, got %v", expected, m)
		}
	}
}
