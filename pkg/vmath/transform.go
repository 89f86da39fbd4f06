package vmath

import "github.com/go-gl/mathgl/mgl64"

// Transform is a uniform-scale, Y-rotation, translation transform.
// Applied in order: scale, rotate, translate.
type Transform struct {
	Position  Vec3
	RotationY float64 // radians
	Scale     float64
}

// IdentityTransform returns a transform that maps every point to itself.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// Matrix returns the local → world matrix T·R·S.
func (t Transform) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Position.X, t.Position.Y, t.Position.Z).
		Mul4(mgl64.HomogRotate3DY(t.RotationY)).
		Mul4(mgl64.Scale3D(t.Scale, t.Scale, t.Scale))
}

// InverseMatrix returns the world → local matrix S⁻¹·R⁻¹·T⁻¹.
// Scale 为 0 时不做缩放逆变换
func (t Transform) InverseMatrix() mgl64.Mat4 {
	m := mgl64.HomogRotate3DY(-t.RotationY).
		Mul4(mgl64.Translate3D(-t.Position.X, -t.Position.Y, -t.Position.Z))
	if t.Scale == 0 {
		return m
	}
	inv := 1 / t.Scale
	return mgl64.Scale3D(inv, inv, inv).Mul4(m)
}

// LocalToWorld 局部坐标 → 世界坐标
func (t Transform) LocalToWorld(p Vec3) Vec3 {
	return FromGL(mgl64.TransformCoordinate(p.GL(), t.Matrix()))
}

// WorldToLocal 世界坐标 → 局部坐标（LocalToWorld 的逆变换）
func (t Transform) WorldToLocal(p Vec3) Vec3 {
	return FromGL(mgl64.TransformCoordinate(p.GL(), t.InverseMatrix()))
}
