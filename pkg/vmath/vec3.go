// Package vmath 提供星云场景使用的三维向量数学
//
// 所有计算使用 float64，只有在写入 ebiten.Vertex 时才转换为 float32。
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a float64 3D vector. Value type, never mutated in place.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is a shorthand constructor.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// GL 转换为 mgl64 向量
func (v Vec3) GL() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromGL 从 mgl64 向量构造
func FromGL(g mgl64.Vec3) Vec3 {
	return Vec3{X: g[0], Y: g[1], Z: g[2]}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return FromGL(v.GL().Add(o.GL()))
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return FromGL(v.GL().Sub(o.GL()))
}

func (v Vec3) Scale(s float64) Vec3 {
	return FromGL(v.GL().Mul(s))
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.GL().Dot(o.GL())
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return FromGL(v.GL().Cross(o.GL()))
}

func (v Vec3) LenSq() float64 {
	return v.GL().LenSqr()
}

func (v Vec3) Len() float64 {
	return v.GL().Len()
}

// Normalize returns the unit vector, or the zero vector when v has no length.
// mgl64 对零向量返回 NaN
func (v Vec3) Normalize() Vec3 {
	if v.LenSq() == 0 {
		return Vec3{}
	}
	return FromGL(v.GL().Normalize())
}

// Lerp 线性插值：t=0 返回 v，t=1 返回 o
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Len()
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// RotateY rotates v around the Y axis by angle radians.
func (v Vec3) RotateY(angle float64) Vec3 {
	return FromGL(mgl64.Rotate3DY(angle).Mul3x1(v.GL()))
}

// Box3 是轴对齐包围盒
type Box3 struct {
	Min, Max Vec3
}

// Clamp 将点限制在包围盒内
func (b Box3) Clamp(p Vec3) Vec3 {
	return Vec3{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

// Contains reports whether p lies inside the box, inclusive.
func (b Box3) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
