package vmath

import "github.com/go-gl/mathgl/mgl64"

// CubicBezier is a single cubic Bézier segment.
type CubicBezier struct {
	P0, P1, P2, P3 Vec3
}

// Point evaluates the curve at t, clamped to [0, 1].
//
//	B(t) = (1-t)³P0 + 3(1-t)²t P1 + 3(1-t)t² P2 + t³P3
func (c CubicBezier) Point(t float64) Vec3 {
	// mgl64 在 t 越界时 panic
	t = Clamp01(t)
	return FromGL(mgl64.CubicBezierCurve3D(t, c.P0.GL(), c.P1.GL(), c.P2.GL(), c.P3.GL()))
}

// Tangent returns the (unnormalized) first derivative at t.
func (c CubicBezier) Tangent(t float64) Vec3 {
	u := 1 - t
	d0 := c.P1.Sub(c.P0).Scale(3 * u * u)
	d1 := c.P2.Sub(c.P1).Scale(6 * u * t)
	d2 := c.P3.Sub(c.P2).Scale(3 * t * t)
	return d0.Add(d1).Add(d2)
}

// ControlPoints returns the four points in order.
func (c CubicBezier) ControlPoints() [4]Vec3 {
	return [4]Vec3{c.P0, c.P1, c.P2, c.P3}
}
