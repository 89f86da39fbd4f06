package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera that always looks at Target.
//
// 坐标约定：
//   - 世界坐标：右手系，Y 轴向上
//   - 屏幕坐标：像素，原点在左上角，Y 向下
type Camera struct {
	Position Vec3
	Target   Vec3
	Up       Vec3
	FovY     float64 // 垂直视角（度）
	Near     float64
	Far      float64

	// Viewport 像素尺寸（窗口 resize 时同步更新）
	Width  float64
	Height float64
}

// NewCamera creates a camera at position looking at target.
func NewCamera(position, target Vec3, fovY, width, height float64) *Camera {
	return &Camera{
		Position: position,
		Target:   target,
		Up:       Vec3{Y: 1},
		FovY:     fovY,
		Near:     0.1,
		Far:      2000,
		Width:    width,
		Height:   height,
	}
}

// LookAt re-orients the camera toward target.
func (c *Camera) LookAt(target Vec3) {
	c.Target = target
}

// SetViewport 更新投影尺寸，对应窗口 resize
func (c *Camera) SetViewport(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Width = width
	c.Height = height
}

// Aspect returns Width/Height, or 1 for an empty viewport.
func (c *Camera) Aspect() float64 {
	if c.Height <= 0 {
		return 1
	}
	return c.Width / c.Height
}

// forward 返回视线方向的单位向量
func (c *Camera) forward() Vec3 {
	f := c.Target.Sub(c.Position).Normalize()
	if f.LenSq() == 0 {
		return Vec3{Z: -1}
	}
	return f
}

// viewUp 返回不与视线平行的 up 参考轴
func (c *Camera) viewUp(forward Vec3) Vec3 {
	up := c.Up
	if up.LenSq() == 0 {
		up = Vec3{Y: 1}
	}
	if forward.Cross(up).LenSq() < 1e-12 {
		// 视线与 up 平行，换一个参考轴
		up = Vec3{Z: 1}
	}
	return up
}

// View returns the world → camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	f := c.forward()
	return mgl64.LookAtV(c.Position.GL(), c.Position.Add(f).GL(), c.viewUp(f).GL())
}

// Projection returns the perspective matrix for the current viewport.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

func (c *Camera) viewport() (w, h int) {
	return int(math.Round(c.Width)), int(math.Round(c.Height))
}

func (c *Camera) tanHalfFov() float64 {
	return math.Tan(mgl64.DegToRad(c.FovY) / 2)
}

// Project converts a world point to screen pixels.
// depth is the distance along the view direction; ok is false when the point
// is outside the near/far range.
func (c *Camera) Project(p Vec3) (sx, sy, depth float64, ok bool) {
	depth = p.Sub(c.Position).Dot(c.forward())
	if depth <= c.Near || depth >= c.Far {
		return 0, 0, depth, false
	}
	w, h := c.viewport()
	win := mgl64.Project(p.GL(), c.View(), c.Projection(), 0, 0, w, h)
	// mgl64 的窗口坐标 Y 向上
	return win[0], float64(h) - win[1], depth, true
}

// PixelsPerUnit returns how many screen pixels one world unit spans at depth.
func (c *Camera) PixelsPerUnit(depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return c.Height / (2 * depth * c.tanHalfFov())
}

// RayFromScreen builds the pointer ray through a screen pixel.
func (c *Camera) RayFromScreen(sx, sy float64) Ray {
	w, h := c.viewport()
	if w <= 0 || h <= 0 {
		return NewRay(c.Position, c.forward())
	}
	win := mgl64.Vec3{sx, float64(h) - sy, 0.5}
	obj, err := mgl64.UnProject(win, c.View(), c.Projection(), 0, 0, w, h)
	if err != nil {
		return NewRay(c.Position, c.forward())
	}
	return NewRay(c.Position, FromGL(obj).Sub(c.Position))
}

// PointAtScreen unprojects a screen pixel to the world point at distance
// units from the camera along the pointer ray.
func (c *Camera) PointAtScreen(sx, sy, distance float64) Vec3 {
	return c.RayFromScreen(sx, sy).At(distance)
}
