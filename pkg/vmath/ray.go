package vmath

// Ray 射线，Dir 必须是单位向量
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay normalizes dir before storing it.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns Origin + Dir*t.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// ClosestT returns the ray parameter of the point closest to p.
// Points behind the origin clamp to t=0.
func (r Ray) ClosestT(p Vec3) float64 {
	t := p.Sub(r.Origin).Dot(r.Dir)
	if t < 0 {
		return 0
	}
	return t
}

// DistanceToPoint 点到射线的垂直距离（原点之后的部分）
func (r Ray) DistanceToPoint(p Vec3) float64 {
	return r.At(r.ClosestT(p)).Distance(p)
}

// Rect is a screen-space rectangle in pixels.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the rectangle's center point.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}
