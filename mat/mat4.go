package mat

// Mat4 is a column-major 4x4 matrix; element (row, col) is m[4*col+row].
type Mat4 [16]float32

func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func (m Mat4) At(row, col int) float32 {
	return m[4*col+row]
}

func (m Mat4) Mul(a Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[4*k+i] * a[4*j+k]
			}
			out[4*j+i] = sum
		}
	}
	return out
}

// MulAffine multiplies two matrices assuming the last rows are (0, 0, 0, 1).
func (m Mat4) MulAffine(a Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			sum := m[4*0+i]*a[4*j+0] + m[4*1+i]*a[4*j+1] + m[4*2+i]*a[4*j+2]
			if j == 3 {
				sum += m[4*3+i]
			}
			out[4*j+i] = sum
		}
	}
	out[15] = 1
	return out
}

func (m Mat4) TransformAffine(a Vec3) Vec3 {
	var out Vec3
	out[0] = m[4*0+0]*a[0] + m[4*1+0]*a[1] + m[4*2+0]*a[2] + m[4*3+0]
	out[1] = m[4*0+1]*a[0] + m[4*1+1]*a[1] + m[4*2+1]*a[2] + m[4*3+1]
	out[2] = m[4*0+2]*a[0] + m[4*1+2]*a[1] + m[4*2+2]*a[2] + m[4*3+2]
	return out
}

// Rotation returns the upper-left 3x3 block.
func (m Mat4) Rotation() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Translation returns the first three rows of the last column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// InvAffine returns the inverse of a rigid transform.
// Scaling or shearing components are not taken into account.
func (m Mat4) InvAffine() Mat4 {
	rt := m.Rotation().Transpose()
	t := rt.MulVec3(m.Translation()).Mul(-1)
	return NewRigid(rt, t)
}

// IsRigid checks that the matrix is a proper rigid motion:
// orthonormal rotation with determinant +1 and bottom row (0, 0, 0, 1).
func (m Mat4) IsRigid(tol float32) bool {
	if !near(m[3], 0, tol) || !near(m[7], 0, tol) || !near(m[11], 0, tol) || !near(m[15], 1, tol) {
		return false
	}
	r := m.Rotation()
	if !near(r.Det(), 1, tol) {
		return false
	}
	rtr := r.Transpose().Mul(r)
	id := Identity3()
	for i := range rtr {
		if !near(rtr[i], id[i], tol) {
			return false
		}
	}
	return true
}

// NewRigid assembles a homogeneous transform from a rotation and a translation.
func NewRigid(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], 0,
		r[3], r[4], r[5], 0,
		r[6], r[7], r[8], 0,
		t[0], t[1], t[2], 1,
	}
}

func near(a, b, tol float32) bool {
	d := a - b
	return -tol <= d && d <= tol
}
