package systems

import (
	"fmt"
	"log"
	"math"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/vmath"
)

// phaseEpsilon 阶段切换的时间容差（秒），避免浮点累加误差导致多停一帧
const phaseEpsilon = 1e-9

// trailMinLength 运动中拖尾的最小长度
const trailMinLength = 2

// SettleHandler 粒子进入终态时调用，local 为星云局部坐标
type SettleHandler func(entity ecs.EntityID, settled *components.SettledComponent, local vmath.Vec3)

// PhaseListener 阶段切换时调用
type PhaseListener func(id string, from, to components.Phase)

// ProjectileSystem 发射粒子的生命周期状态机
//
// 阶段：pulse → wander → flight → settling → nebula（终态）。
// 每帧由 Update(dt) 统一推进；一帧内的剩余时间会带入下一个阶段。
type ProjectileSystem struct {
	state *game.SceneState
	field *NebulaField

	// active 按生成顺序保存的飞行中实体
	active []ecs.EntityID
	seq    int

	onSettle SettleHandler
	onPhase  PhaseListener
}

// NewProjectileSystem 创建生命周期系统
func NewProjectileSystem(state *game.SceneState, field *NebulaField) *ProjectileSystem {
	return &ProjectileSystem{
		state: state,
		field: field,
	}
}

// SetSettleHandler 设置终态回调（持久化）
func (s *ProjectileSystem) SetSettleHandler(h SettleHandler) { s.onSettle = h }

// SetPhaseListener 设置阶段切换回调
func (s *ProjectileSystem) SetPhaseListener(l PhaseListener) { s.onPhase = l }

// Active 返回飞行中的实体（只读）
func (s *ProjectileSystem) Active() []ecs.EntityID { return s.active }

// ActiveCount returns the number of particles still in flight.
func (s *ProjectileSystem) ActiveCount() int { return len(s.active) }

// Spawn 从屏幕矩形发射一个粒子
//
// 场景或镜头尚未就绪时静默返回 false。
func (s *ProjectileSystem) Spawn(rect vmath.Rect, colorHex, text string, onComplete func()) (ecs.EntityID, bool) {
	if s.state == nil || s.state.Camera == nil || s.state.EntityManager == nil || s.field == nil {
		return 0, false
	}
	p := s.state.Params

	c, err := config.ParseHexColor(colorHex)
	if err != nil {
		log.Printf("[ProjectileSystem] %v, using default colour", err)
		colorHex = config.DefaultParticleColor
		c, _ = config.ParseHexColor(colorHex)
	}

	start := LaunchPoint(s.state.Camera, rect, p.LaunchDistance)
	curves := GenerateWanderCurves(s.state.Rand, start, p)
	now := s.state.NowMillis()
	s.seq++
	id := fmt.Sprintf("p-%d-%d", now, s.seq)

	em := s.state.EntityManager
	entity := em.CreateEntity()
	ecs.AddComponent(em, entity, &components.TransformComponent{
		Position: start,
		Parent:   components.ParentSceneRoot,
		Scale:    1,
		Opacity:  1,
	})
	ecs.AddComponent(em, entity, &components.SpriteComponent{
		Color:   c,
		Size:    p.ParticleSize,
		HasCore: true,
		Visible: true,
	})
	ecs.AddComponent(em, entity, &components.TrailComponent{})
	ecs.AddComponent(em, entity, &components.ProjectileComponent{
		ID:           id,
		Text:         text,
		ColorHex:     colorHex,
		CreatedAt:    now,
		Phase:        components.PhasePulse,
		PhaseHistory: []components.Phase{components.PhasePulse},
		DriftCurves:  curves,
		SegmentEnds:  SegmentEnds(curves, p.WanderSeconds()),
		LastPosition: start,
		OnComplete:   onComplete,
	})
	s.active = append(s.active, entity)

	log.Printf("[ProjectileSystem] spawned %s (%q, %s) with %d drift curves", id, text, colorHex, len(curves))
	return entity, true
}

// Update 推进所有飞行中粒子
//
// 倒序遍历：进入终态的粒子在本次遍历中直接从列表移除。
func (s *ProjectileSystem) Update(dt float64) {
	for i := len(s.active) - 1; i >= 0; i-- {
		if s.step(s.active[i], dt) {
			s.active = append(s.active[:i], s.active[i+1:]...)
		}
	}
}

// step 推进单个粒子，返回 true 表示已进入终态
func (s *ProjectileSystem) step(entity ecs.EntityID, dt float64) bool {
	em := s.state.EntityManager
	proj, ok := ecs.GetComponent[*components.ProjectileComponent](em, entity)
	if !ok {
		// 实体已被外部销毁
		return true
	}
	tr, _ := ecs.GetComponent[*components.TransformComponent](em, entity)
	trail, _ := ecs.GetComponent[*components.TrailComponent](em, entity)
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, entity)
	if tr == nil || trail == nil || sprite == nil {
		log.Printf("[ProjectileSystem] %s lost components, dropping", proj.ID)
		return true
	}

	proj.PhaseElapsed += dt
	for proj.PhaseElapsed+phaseEpsilon >= s.phaseDuration(proj) {
		overflow := math.Max(0, proj.PhaseElapsed-s.phaseDuration(proj))
		if s.advance(entity, proj, tr, trail, sprite) {
			return true
		}
		proj.PhaseElapsed = overflow
	}

	s.apply(proj, tr, trail, sprite, dt)
	return false
}

// phaseDuration 当前阶段时长（秒）
func (s *ProjectileSystem) phaseDuration(proj *components.ProjectileComponent) float64 {
	p := s.state.Params
	switch proj.Phase {
	case components.PhasePulse:
		return p.PulseSeconds()
	case components.PhaseWander:
		return p.WanderSeconds()
	case components.PhaseFlight:
		return p.FlightDuration
	case components.PhaseSettling:
		return p.SettleSeconds()
	default:
		return math.Inf(1)
	}
}

// advance 离开当前阶段，返回 true 表示进入终态
func (s *ProjectileSystem) advance(entity ecs.EntityID, proj *components.ProjectileComponent,
	tr *components.TransformComponent, trail *components.TrailComponent, sprite *components.SpriteComponent) bool {
	p := s.state.Params

	switch proj.Phase {
	case components.PhasePulse:
		s.setPhase(proj, components.PhaseWander)

	case components.PhaseWander:
		// 漂移结束：从当前终点生成飞行曲线
		from := tr.Position
		if n := len(proj.DriftCurves); n > 0 {
			from = proj.DriftCurves[n-1].Curve.P3
			proj.CurveIndex = n - 1
		}
		tr.Position = from
		proj.FieldTarget = PickFieldTarget(s.state.Rand, p)
		curve := GenerateFlightCurve(s.state.Rand, from, proj.FieldTarget, p)
		proj.FlightCurve = &curve
		s.setPhase(proj, components.PhaseFlight)

	case components.PhaseFlight:
		tr.Position = proj.FieldTarget
		trail.Clear()
		if !proj.Completed {
			proj.Completed = true
			if proj.OnComplete != nil {
				proj.OnComplete()
			}
		}
		s.reparent(proj, tr)
		sprite.Size = p.SettledSize
		tr.Scale = 1
		s.setPhase(proj, components.PhaseSettling)

	case components.PhaseSettling:
		s.setPhase(proj, components.PhaseNebula)
		s.promote(entity, proj, tr, sprite)
		return true
	}
	return false
}

// reparent 把粒子从场景根转移到星云坐标系，只执行一次
func (s *ProjectileSystem) reparent(proj *components.ProjectileComponent, tr *components.TransformComponent) {
	if proj.Reparented || tr.Parent == components.ParentField {
		log.Printf("[ProjectileSystem] %s already reparented, skipping", proj.ID)
		return
	}
	tr.Position = s.field.WorldToLocal(tr.Position)
	tr.Parent = components.ParentField
	proj.Reparented = true
}

// promote 终态：移交给星云并持久化
func (s *ProjectileSystem) promote(entity ecs.EntityID, proj *components.ProjectileComponent,
	tr *components.TransformComponent, sprite *components.SpriteComponent) {
	em := s.state.EntityManager

	settled := &components.SettledComponent{
		ID:        proj.ID,
		Text:      proj.Text,
		ColorHex:  proj.ColorHex,
		Timestamp: proj.CreatedAt,
	}
	ecs.AddComponent(em, entity, settled)
	ecs.RemoveComponentOf[*components.ProjectileComponent](em, entity)
	ecs.RemoveComponentOf[*components.TrailComponent](em, entity)

	tr.Scale = 1
	tr.Opacity = 1
	sprite.Visible = true

	if err := s.field.RegisterSettled(entity); err != nil {
		log.Printf("[ProjectileSystem] failed to register %s: %v, destroying entity", proj.ID, err)
		em.DestroyEntity(entity)
		return
	}
	log.Printf("[ProjectileSystem] %s settled (%d in field)", proj.ID, s.field.SettledCount())

	if s.onSettle != nil {
		s.onSettle(entity, settled, tr.Position)
	}
}

func (s *ProjectileSystem) setPhase(proj *components.ProjectileComponent, next components.Phase) {
	prev := proj.Phase
	proj.Phase = next
	proj.PhaseHistory = append(proj.PhaseHistory, next)
	if s.onPhase != nil {
		s.onPhase(proj.ID, prev, next)
	}
}

// apply 根据当前阶段和进度更新位置、外观和拖尾
func (s *ProjectileSystem) apply(proj *components.ProjectileComponent,
	tr *components.TransformComponent, trail *components.TrailComponent, sprite *components.SpriteComponent, dt float64) {
	p := s.state.Params
	t := proj.PhaseElapsed
	moving := false

	switch proj.Phase {
	case components.PhasePulse:
		wave := math.Sin(2 * math.Pi * p.PulseFrequency * t)
		tr.Scale = 1 + p.PulseAmplitude*wave
		tr.Opacity = 0.8 + 0.2*wave

	case components.PhaseWander:
		tr.Position = s.wanderPosition(proj, t)
		tr.Scale = 1
		tr.Opacity = 1
		moving = true

	case components.PhaseFlight:
		e := vmath.EaseInOutCubic(proj.Progress(p.FlightDuration))
		if proj.FlightCurve != nil {
			tr.Position = proj.FlightCurve.Point(e)
		}
		tr.Scale = vmath.Lerp(1, p.FlightEndScale, e)
		tr.Opacity = 1
		moving = true

	case components.PhaseSettling:
		progress := proj.Progress(p.SettleSeconds())
		blink := 0.5 + 0.5*math.Cos(2*math.Pi*p.SettleBlinkFrequency*t)
		tr.Opacity = vmath.Lerp(blink, 1, progress)
		tr.Scale = 1 + 0.4*(1-progress)*math.Abs(math.Sin(math.Pi*p.SettleBlinkFrequency*t))
	}
	sprite.Visible = true

	if tr.Parent == components.ParentSceneRoot {
		if dt > 0 {
			proj.Speed = tr.Position.Distance(proj.LastPosition) / dt
		}
		proj.LastPosition = tr.Position
	} else {
		proj.Speed = 0
	}

	if !moving {
		trail.MaxLength = 0
		trail.Truncate()
		trail.Mesh.Reset()
		return
	}
	factor := 1.0
	if p.TrailSpeedReference > 0 {
		factor = vmath.Clamp01(proj.Speed / p.TrailSpeedReference)
	}
	trail.MaxLength = TrailMaxLength(p.TrailLength, factor)
	trail.HeadRadius = p.TrailWidth * (0.5 + 0.5*factor)
	trail.Push(tr.Position)
	BuildTrailMesh(&trail.Mesh, trail.Positions, trail.HeadRadius, p.TrailTailWidth, p.TrailRadialSegments)
}

// TrailMaxLength 运动中的拖尾长度：速度越快越长，范围 [2, trailLength]
func TrailMaxLength(trailLength int, speedFactor float64) int {
	n := int(math.Round(float64(trailLength) * (0.25 + 0.75*vmath.Clamp01(speedFactor))))
	if n > trailLength {
		n = trailLength
	}
	if n < trailMinLength {
		n = trailMinLength
	}
	return n
}

// wanderPosition 漂移阶段 elapsed 秒时的位置
func (s *ProjectileSystem) wanderPosition(proj *components.ProjectileComponent, elapsed float64) vmath.Vec3 {
	n := len(proj.DriftCurves)
	if n == 0 {
		return proj.LastPosition
	}
	k := 0
	for k < n-1 && elapsed >= proj.SegmentEnds[k] {
		k++
	}
	segStart := 0.0
	if k > 0 {
		segStart = proj.SegmentEnds[k-1]
	}
	segLen := proj.SegmentEnds[k] - segStart
	local := 1.0
	if segLen > 0 {
		local = vmath.Clamp01((elapsed - segStart) / segLen)
	}
	proj.CurveIndex = k
	return proj.DriftCurves[k].Curve.Point(vmath.EaseInOutCubic(local))
}

// Dispose 销毁所有飞行中粒子（网格随组件一起释放）
func (s *ProjectileSystem) Dispose() {
	em := s.state.EntityManager
	for _, entity := range s.active {
		if trail, ok := ecs.GetComponent[*components.TrailComponent](em, entity); ok {
			trail.Clear()
		}
		em.DestroyEntity(entity)
	}
	em.RemoveMarkedEntities()
	s.active = nil
}
