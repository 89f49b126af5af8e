package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Vec3{X: 5, Y: 7, Z: 9}, a.Add(b))
	assert.Equal(t, Vec3{X: -3, Y: -3, Z: -3}, a.Sub(b))
	assert.Equal(t, Vec3{X: 2, Y: 4, Z: 6}, a.Scale(2))
	assert.InDelta(t, 32, a.Dot(b), eps)
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}

	cross := x.Cross(y)
	assert.InDelta(t, 0, cross.X, eps)
	assert.InDelta(t, 0, cross.Y, eps)
	assert.InDelta(t, 1, cross.Z, eps)
}

func TestVec3Normalized(t *testing.T) {
	v := Vec3{X: 3, Y: 4}.Normalized()
	assert.InDelta(t, 1, v.Length(), eps)
	assert.InDelta(t, 0.6, v.X, eps)
	assert.InDelta(t, 0.8, v.Y, eps)

	// Zero vector stays zero instead of producing NaN.
	zero := Vec3{}.Normalized()
	assert.Equal(t, Vec3{}, zero)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-5, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}

func TestMat4TranslationAndScaling(t *testing.T) {
	p := Vec3{X: 1, Y: 1, Z: 1}

	moved := Translation(Vec3{X: 2, Y: 3, Z: 4}).TransformPoint(p)
	assert.InDelta(t, 3, moved.X, eps)
	assert.InDelta(t, 4, moved.Y, eps)
	assert.InDelta(t, 5, moved.Z, eps)

	scaled := Scaling(2).TransformPoint(p)
	assert.InDelta(t, 2, scaled.X, eps)
	assert.InDelta(t, 2, scaled.Y, eps)
	assert.InDelta(t, 2, scaled.Z, eps)
}

func TestMat4ComposedTransform(t *testing.T) {
	// Scale then translate: point 1,0,0 -> 2,0,0 -> 5,0,0.
	m := Translation(Vec3{X: 3}).Mul(Scaling(2))
	out := m.TransformPoint(Vec3{X: 1})
	assert.InDelta(t, 5, out.X, eps)
}

func TestMat4RotationY(t *testing.T) {
	out := RotationY(math.Pi / 2).TransformPoint(Vec3{X: 1})
	assert.InDelta(t, 0, out.X, eps)
	assert.InDelta(t, -1, out.Z, eps)
}

func TestLookAtTransformsTargetToNegativeZ(t *testing.T) {
	eye := Vec3{Z: 5}
	target := Vec3{}
	view := LookAt(eye, target, Vec3{Y: 1})

	out := view.TransformPoint(target)
	assert.InDelta(t, 0, out.X, eps)
	assert.InDelta(t, 0, out.Y, eps)
	assert.InDelta(t, -5, out.Z, eps)

	// The eye maps to the origin.
	origin := view.TransformPoint(eye)
	assert.InDelta(t, 0, origin.Length(), eps)
}

func TestBox3ExpandAndMetrics(t *testing.T) {
	box := NewBox3()
	assert.True(t, box.IsEmpty())

	box = box.ExpandByPoint(Vec3{X: -1, Y: -2, Z: -3})
	box = box.ExpandByPoint(Vec3{X: 1, Y: 2, Z: 3})

	assert.False(t, box.IsEmpty())
	assert.Equal(t, Vec3{}, box.Center())
	assert.Equal(t, Vec3{X: 2, Y: 4, Z: 6}, box.Size())
	assert.InDelta(t, 6, box.MaxDimension(), eps)
}
