package math3d

import "math"

// Mat4 is a 4x4 row-major transformation matrix.
type Mat4 struct {
	Data [16]float64
}

// Identity returns the identity matrix.
func Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1
	m.Data[5] = 1
	m.Data[10] = 1
	m.Data[15] = 1
	return m
}

// Mul returns m * other.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.Data[row*4+k] * other.Data[k*4+col]
			}
			out.Data[row*4+col] = sum
		}
	}
	return out
}

// Translation returns a matrix translating by t.
func Translation(t Vec3) Mat4 {
	m := Identity()
	m.Data[3] = t.X
	m.Data[7] = t.Y
	m.Data[11] = t.Z
	return m
}

// Scaling returns a matrix scaling uniformly by s.
func Scaling(s float64) Mat4 {
	m := Identity()
	m.Data[0] = s
	m.Data[5] = s
	m.Data[10] = s
	return m
}

// RotationX returns a matrix rotating by angle radians about the X axis.
func RotationX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m.Data[5] = c
	m.Data[6] = -s
	m.Data[9] = s
	m.Data[10] = c
	return m
}

// RotationY returns a matrix rotating by angle radians about the Y axis.
func RotationY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m.Data[0] = c
	m.Data[2] = s
	m.Data[8] = -s
	m.Data[10] = c
	return m
}

// LookAt returns a view matrix for a camera at position looking at target.
// Points transformed by it land in a right-handed camera space where the
// camera looks down -Z.
func LookAt(position, target, up Vec3) Mat4 {
	forward := target.Sub(position).Normalized()
	right := forward.Cross(up).Normalized()
	trueUp := right.Cross(forward)

	m := Identity()
	m.Data[0], m.Data[1], m.Data[2] = right.X, right.Y, right.Z
	m.Data[4], m.Data[5], m.Data[6] = trueUp.X, trueUp.Y, trueUp.Z
	m.Data[8], m.Data[9], m.Data[10] = -forward.X, -forward.Y, -forward.Z
	m.Data[3] = -right.Dot(position)
	m.Data[7] = -trueUp.Dot(position)
	m.Data[11] = forward.Dot(position)
	return m
}

// TransformPoint applies m to p as a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		X: m.Data[0]*p.X + m.Data[1]*p.Y + m.Data[2]*p.Z + m.Data[3],
		Y: m.Data[4]*p.X + m.Data[5]*p.Y + m.Data[6]*p.Z + m.Data[7],
		Z: m.Data[8]*p.X + m.Data[9]*p.Y + m.Data[10]*p.Z + m.Data[11],
	}
}

// TransformDirection applies m to d as a direction (w = 0, no translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		X: m.Data[0]*d.X + m.Data[1]*d.Y + m.Data[2]*d.Z,
		Y: m.Data[4]*d.X + m.Data[5]*d.Y + m.Data[6]*d.Z,
		Z: m.Data[8]*d.X + m.Data[9]*d.Y + m.Data[10]*d.Z,
	}
}
