package mat

// Mat3 is a column-major 3x3 matrix; element (row, col) is m[3*col+row].
type Mat3 [9]float32

func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

func (m Mat3) At(row, col int) float32 {
	return m[3*col+row]
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func (m Mat3) Mul(a Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += m[3*k+i] * a[3*j+k]
			}
			out[3*j+i] = sum
		}
	}
	return out
}

func (m Mat3) MulVec3(a Vec3) Vec3 {
	return Vec3{
		m[0]*a[0] + m[3]*a[1] + m[6]*a[2],
		m[1]*a[0] + m[4]*a[1] + m[7]*a[2],
		m[2]*a[0] + m[5]*a[1] + m[8]*a[2],
	}
}

func (m Mat3) Det() float32 {
	return m[0]*(m[4]*m[8]-m[7]*m[5]) -
		m[3]*(m[1]*m[8]-m[7]*m[2]) +
		m[6]*(m[1]*m[5]-m[4]*m[2])
}
