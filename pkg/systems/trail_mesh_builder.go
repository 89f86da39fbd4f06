package systems

import (
	"math"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/vmath"
)

// maxTrailVertices uint16 索引上限
const maxTrailVertices = math.MaxUint16 + 1

// TrailRadius 第 i 个环的半径，t = i/(n-1)
//
//	r = head*(1-t)^1.5 + tail*t
func TrailRadius(head, tail float64, i, n int) float64 {
	if n < 2 {
		return head
	}
	t := float64(i) / float64(n-1)
	return head*math.Pow(1-t, 1.5) + tail*t
}

// BuildTrailMesh 从最近的位置（头部在前）重建管道网格
//
// dst 的切片容量被复用，但内容完全重写：Rings 总是等于本次使用的位置数，
// 不足 2 个位置时网格为空。
func BuildTrailMesh(dst *components.TrailMesh, positions []vmath.Vec3, headRadius, tailRadius float64, segments int) {
	dst.Reset()
	if segments < 3 {
		segments = 3
	}
	dst.RadialSegments = segments

	n := len(positions)
	if n < 2 {
		return
	}
	if n*segments > maxTrailVertices {
		n = maxTrailVertices / segments
	}

	for i := 0; i < n; i++ {
		tangent := trailTangent(positions[:n], i)
		right, up := ringFrame(tangent)
		r := TrailRadius(headRadius, tailRadius, i, n)
		dst.Radii = append(dst.Radii, r)
		for s := 0; s < segments; s++ {
			a := 2 * math.Pi * float64(s) / float64(segments)
			offset := right.Scale(math.Cos(a) * r).Add(up.Scale(math.Sin(a) * r))
			dst.Vertices = append(dst.Vertices, positions[i].Add(offset))
		}
	}
	dst.Rings = n

	// 相邻两环之间每个分段两个三角形，首尾分段相接形成闭合管道
	for i := 0; i < n-1; i++ {
		ring0 := i * segments
		ring1 := (i + 1) * segments
		for s := 0; s < segments; s++ {
			next := (s + 1) % segments
			a := uint16(ring0 + s)
			b := uint16(ring0 + next)
			c := uint16(ring1 + s)
			d := uint16(ring1 + next)
			dst.Indices = append(dst.Indices, a, c, b, b, c, d)
		}
	}
}

// trailTangent 中心差分，端点处使用前向或后向差分
func trailTangent(positions []vmath.Vec3, i int) vmath.Vec3 {
	n := len(positions)
	var t vmath.Vec3
	switch {
	case i == 0:
		t = positions[0].Sub(positions[1])
	case i == n-1:
		t = positions[n-2].Sub(positions[n-1])
	default:
		t = positions[i-1].Sub(positions[i+1])
	}
	return t.Normalize()
}

// ringFrame 求与切线垂直的两个单位向量
//
// 参考 up 与切线接近平行时换用 X 轴；切线为零向量时返回固定的 XY 平面。
func ringFrame(tangent vmath.Vec3) (right, up vmath.Vec3) {
	if tangent.LenSq() == 0 {
		return vmath.V3(1, 0, 0), vmath.V3(0, 1, 0)
	}
	ref := vmath.V3(0, 1, 0)
	if math.Abs(tangent.Dot(ref)) > 0.99 {
		ref = vmath.V3(1, 0, 0)
	}
	right = tangent.Cross(ref).Normalize()
	up = right.Cross(tangent).Normalize()
	return right, up
}
