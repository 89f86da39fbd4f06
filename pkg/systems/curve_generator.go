package systems

import (
	"math"
	"math/rand"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/vmath"
)

// 漂移曲线生成
//
// 所有函数都是纯函数：只依赖传入的随机源和参数，不修改任何状态。

// centerPullFraction 最后这一部分曲线段会被拉向星云中心
const centerPullFraction = 0.4

// LaunchPoint 把屏幕矩形的中心反投影到距镜头 distance 处的世界坐标
func LaunchPoint(cam *vmath.Camera, rect vmath.Rect, distance float64) vmath.Vec3 {
	cx, cy := rect.Center()
	return cam.PointAtScreen(cx, cy, distance)
}

// GenerateWanderCurves 生成 floor(wanderCurveCount) 段漂移曲线
//
// 第一段从 start 出发；之后每段起点等于上一段终点。
// 除第一段的起点外，所有端点和控制点都被限制在 wander 包围盒内。
func GenerateWanderCurves(rng *rand.Rand, start vmath.Vec3, p *config.AnimationParams) []components.DriftSegment {
	n := p.CurveCount()
	bounds := p.WanderBounds()
	center := bounds.Clamp(p.FieldCenter)
	pullFrom := n - int(math.Ceil(float64(n)*centerPullFraction))

	segments := make([]components.DriftSegment, 0, n)
	prev := start
	for i := 0; i < n; i++ {
		end := prev.Add(randomInCube(rng, p.WanderRadius))
		if i >= pullFrom {
			// 线性增强：最后一段拉力最大
			w := float64(i-pullFrom+1) / float64(n-pullFrom) * p.WanderCenterPull
			end = end.Lerp(center, vmath.Clamp01(w))
		}
		end = bounds.Clamp(end)

		jitter := p.WanderRadius / 2
		chord := end.Sub(prev)
		c1 := bounds.Clamp(prev.Add(chord.Scale(1.0 / 3)).Add(randomInCube(rng, jitter)))
		c2 := bounds.Clamp(prev.Add(chord.Scale(2.0 / 3)).Add(randomInCube(rng, jitter)))

		speed, regime := pickSpeed(rng, p.WanderSpeedVariation)
		segments = append(segments, components.DriftSegment{
			Curve:  vmath.CubicBezier{P0: prev, P1: c1, P2: c2, P3: end},
			Speed:  speed,
			Regime: regime,
		})
		prev = end
	}
	return segments
}

// pickSpeed 等概率选择速度档
func pickSpeed(rng *rand.Rand, variation float64) (float64, components.SpeedRegime) {
	if rng.Float64() < 0.5 {
		return 0.2 + 0.4*rng.Float64(), components.RegimeContemplative
	}
	return 0.7 + 0.3*rng.Float64() + variation*rng.Float64(), components.RegimeAlert
}

// SegmentEnds 按速度倍率分配漂移总时长，返回每段结束时的累计时间
//
// 段时长与 1/speed 成正比，总和恰好为 total；最后一个值强制等于 total。
func SegmentEnds(segments []components.DriftSegment, total float64) []float64 {
	ends := make([]float64, len(segments))
	if len(segments) == 0 {
		return ends
	}
	weights := make([]float64, len(segments))
	sum := 0.0
	for i, s := range segments {
		speed := s.Speed
		if speed <= 0 {
			speed = 1
		}
		weights[i] = 1 / speed
		sum += weights[i]
	}
	acc := 0.0
	for i, w := range weights {
		acc += w / sum * total
		ends[i] = acc
	}
	ends[len(ends)-1] = total
	return ends
}

// PickFieldTarget 在星云中心附近的球体内随机选择落点（世界坐标）
func PickFieldTarget(rng *rand.Rand, p *config.AnimationParams) vmath.Vec3 {
	return p.FieldCenter.Add(randomInSphere(rng).Scale(p.FieldTargetRadius))
}

// GenerateFlightCurve 从 start 到 target 的单段飞行曲线
//
// 两个控制点沿弦线三等分，再向同一侧的垂直方向偏移 curvature，形成一道弧。
func GenerateFlightCurve(rng *rand.Rand, start, target vmath.Vec3, p *config.AnimationParams) vmath.CubicBezier {
	chord := target.Sub(start)
	side := perpendicular(chord, randomInSphere(rng))
	off1 := side.Scale(p.FlightCurvature * (0.8 + 0.4*rng.Float64()))
	off2 := side.Scale(p.FlightCurvature * (0.3 + 0.4*rng.Float64()))
	return vmath.CubicBezier{
		P0: start,
		P1: start.Add(chord.Scale(1.0 / 3)).Add(off1),
		P2: start.Add(chord.Scale(2.0 / 3)).Add(off2),
		P3: target,
	}
}

// perpendicular 返回与 dir 垂直的单位向量；hint 与 dir 平行时换用固定轴
func perpendicular(dir, hint vmath.Vec3) vmath.Vec3 {
	d := dir.Normalize()
	if d.LenSq() == 0 {
		return vmath.V3(0, 1, 0)
	}
	v := hint.Sub(d.Scale(hint.Dot(d)))
	if v.LenSq() < 1e-8 {
		axis := vmath.V3(0, 1, 0)
		if math.Abs(d.Y) > 0.9 {
			axis = vmath.V3(1, 0, 0)
		}
		v = axis.Sub(d.Scale(axis.Dot(d)))
	}
	return v.Normalize()
}

func randomInCube(rng *rand.Rand, r float64) vmath.Vec3 {
	return vmath.V3(
		(rng.Float64()*2-1)*r,
		(rng.Float64()*2-1)*r,
		(rng.Float64()*2-1)*r,
	)
}

// randomInSphere 单位球内均匀分布的点
func randomInSphere(rng *rand.Rand) vmath.Vec3 {
	for {
		v := randomInCube(rng, 1)
		if v.LenSq() <= 1 {
			return v
		}
	}
}
