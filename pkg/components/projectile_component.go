package components

import "github.com/decker502/nebula/pkg/vmath"

// Phase 发射粒子的生命周期阶段
//
// 严格单调：Pulse → Wander → Flight → Settling → Nebula（终态）
type Phase int

const (
	PhasePulse Phase = iota
	PhaseWander
	PhaseFlight
	PhaseSettling
	PhaseNebula
)

func (p Phase) String() string {
	switch p {
	case PhasePulse:
		return "pulse"
	case PhaseWander:
		return "wander"
	case PhaseFlight:
		return "flight"
	case PhaseSettling:
		return "settling"
	case PhaseNebula:
		return "nebula"
	default:
		return "unknown"
	}
}

// SpeedRegime 漂移段的速度档
type SpeedRegime int

const (
	// RegimeContemplative 慢速（约 0.2–0.6×）
	RegimeContemplative SpeedRegime = iota
	// RegimeAlert 快速（约 0.7–1.0× 加随机量）
	RegimeAlert
)

func (r SpeedRegime) String() string {
	if r == RegimeAlert {
		return "alert"
	}
	return "contemplative"
}

// DriftSegment 一段漂移曲线及其速度倍率
type DriftSegment struct {
	Curve  vmath.CubicBezier
	Speed  float64
	Regime SpeedRegime
}

// ProjectileComponent 飞行中的粒子（短暂实体）
//
// 由 ProjectileSystem 独占；到达终态后视觉句柄转交给 NebulaField，
// 本组件随之移除。
type ProjectileComponent struct {
	ID        string
	Text      string
	ColorHex  string
	CreatedAt int64 // 毫秒时间戳

	Phase        Phase
	PhaseElapsed float64 // 当前阶段已用时间（秒）
	// PhaseHistory 依次进入过的阶段，用于校验单调性
	PhaseHistory []Phase

	// 漂移
	DriftCurves []DriftSegment
	// SegmentEnds 每段结束时的累计时间（秒），由 ProjectileSystem 在进入 wander 时计算
	SegmentEnds []float64
	CurveIndex  int

	// 飞行
	FlightCurve *vmath.CubicBezier
	FieldTarget vmath.Vec3 // 世界坐标

	LastPosition vmath.Vec3
	Speed        float64 // 瞬时速度（单位/秒）

	// OnComplete 飞行结束时调用一次
	OnComplete func()
	Completed  bool

	// Reparented 已从场景根转移到星云坐标系（只允许一次）
	Reparented bool
}

// Progress 当前阶段进度（0..1），duration 为该阶段总时长（秒）
func (p *ProjectileComponent) Progress(duration float64) float64 {
	if duration <= 0 {
		return 1
	}
	return vmath.Clamp01(p.PhaseElapsed / duration)
}
