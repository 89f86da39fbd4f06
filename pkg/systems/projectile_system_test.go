package systems

import (
	"fmt"
	"math"
	"testing"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/vmath"
)

var centerRect = vmath.Rect{X: 630, Y: 350, W: 20, H: 20}

func phaseOf(t *testing.T, s *ProjectileSystem, entity ecs.EntityID) components.Phase {
	t.Helper()
	proj, ok := ecs.GetComponent[*components.ProjectileComponent](s.state.EntityManager, entity)
	if !ok {
		return components.PhaseNebula
	}
	return proj.Phase
}

func TestProjectileLifecycle(t *testing.T) {
	state, field := newTestField(t, 0)
	s := NewProjectileSystem(state, field)

	type settleCall struct {
		id    string
		local vmath.Vec3
	}
	var settles []settleCall
	s.SetSettleHandler(func(_ ecs.EntityID, settled *components.SettledComponent, local vmath.Vec3) {
		settles = append(settles, settleCall{settled.ID, local})
	})
	var transitions []components.Phase
	s.SetPhaseListener(func(_ string, _, to components.Phase) {
		transitions = append(transitions, to)
	})

	completed := 0
	entity, ok := s.Spawn(centerRect, "#6366f1", "hello", func() { completed++ })
	if !ok {
		t.Fatal("Spawn() returned false")
	}
	step := func(frames int) {
		for i := 0; i < frames; i++ {
			s.Update(testFrame)
		}
	}

	step(71)
	if got := phaseOf(t, s, entity); got != components.PhasePulse {
		t.Fatalf("after 71 frames phase = %s, want pulse", got)
	}
	step(1)
	if got := phaseOf(t, s, entity); got != components.PhaseWander {
		t.Fatalf("after 1.2s phase = %s, want wander", got)
	}

	step(359)
	if got := phaseOf(t, s, entity); got != components.PhaseWander {
		t.Fatalf("phase = %s before wander ends", got)
	}
	step(1)
	if got := phaseOf(t, s, entity); got != components.PhaseFlight {
		t.Fatalf("after wander phase = %s, want flight", got)
	}
	proj, _ := ecs.GetComponent[*components.ProjectileComponent](state.EntityManager, entity)
	target := proj.FieldTarget

	step(149)
	if completed != 0 {
		t.Fatalf("onComplete fired early")
	}
	step(1)
	if completed != 1 {
		t.Fatalf("onComplete fired %d times after flight, want 1", completed)
	}
	if got := phaseOf(t, s, entity); got != components.PhaseSettling {
		t.Fatalf("phase = %s, want settling", got)
	}

	tr, _ := ecs.GetComponent[*components.TransformComponent](state.EntityManager, entity)
	if tr.Parent != components.ParentField {
		t.Fatalf("particle not reparented to field")
	}
	// 测试中星云变换为单位变换，局部坐标等于世界坐标
	if !tr.Position.ApproxEqual(target, 1e-9) {
		t.Errorf("settling position = %+v, want %+v", tr.Position, target)
	}

	step(90)
	if completed != 1 {
		t.Errorf("onComplete fired %d times, want exactly 1", completed)
	}
	if s.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", s.ActiveCount())
	}
	if !ecs.HasComponent[*components.SettledComponent](state.EntityManager, entity) {
		t.Fatal("settled particle lost its SettledComponent")
	}
	if ecs.HasComponent[*components.TrailComponent](state.EntityManager, entity) {
		t.Error("trail should be released at the terminal phase")
	}
	if len(settles) != 1 || !settles[0].local.ApproxEqual(target, 1e-9) {
		t.Fatalf("settle handler calls = %+v", settles)
	}

	want := []components.Phase{components.PhaseWander, components.PhaseFlight, components.PhaseSettling, components.PhaseNebula}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}

	p, ok := field.RandomParticle()
	if !ok {
		t.Fatal("RandomParticle() found nothing")
	}
	if p.Text != "hello" || p.Color != "#6366f1" || p.Ambient {
		t.Errorf("RandomParticle() = %+v", p)
	}
}

func TestProjectileTrailBound(t *testing.T) {
	state, field := newTestField(t, 0)
	s := NewProjectileSystem(state, field)
	entity, _ := s.Spawn(centerRect, "#22c55e", "trail", nil)
	limit := state.Params.TrailLength

	maxSeen := 0
	runFrames(state.Params.PulseSeconds()+state.Params.WanderSeconds()+state.Params.FlightDuration+0.5, func(dt float64) {
		s.Update(dt)
		trail, ok := ecs.GetComponent[*components.TrailComponent](state.EntityManager, entity)
		if !ok {
			return
		}
		n := len(trail.Positions)
		if n > limit {
			t.Fatalf("trail length %d exceeds %d", n, limit)
		}
		if n > maxSeen {
			maxSeen = n
		}
		switch phaseOf(t, s, entity) {
		case components.PhasePulse, components.PhaseSettling:
			if n != 0 || !trail.Mesh.Empty() {
				t.Fatalf("trail should be empty while stationary, got %d points", n)
			}
		default:
			if n >= 2 && trail.Mesh.Rings != n {
				t.Fatalf("mesh rings %d != trail points %d", trail.Mesh.Rings, n)
			}
		}
	})
	if maxSeen < 2 {
		t.Errorf("trail never grew, max %d", maxSeen)
	}
}

func TestTrailMaxLength(t *testing.T) {
	tests := []struct {
		length int
		factor float64
		want   int
	}{
		{40, 0, 10},
		{40, 1, 40},
		{40, 5, 40},
		{40, 0.5, 25},
		{4, 0, 2},
		{2, 0, 2},
	}
	for _, tt := range tests {
		if got := TrailMaxLength(tt.length, tt.factor); got != tt.want {
			t.Errorf("TrailMaxLength(%d, %v) = %d, want %d", tt.length, tt.factor, got, tt.want)
		}
	}
}

func TestProjectileSpawnWithoutCamera(t *testing.T) {
	state, field := newTestField(t, 0)
	state.Camera = nil
	s := NewProjectileSystem(state, field)
	if _, ok := s.Spawn(centerRect, "#fff", "x", nil); ok {
		t.Fatal("Spawn() without a camera should return false")
	}
	if s.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d", s.ActiveCount())
	}
}

func TestProjectileInvalidColorFallsBack(t *testing.T) {
	state, field := newTestField(t, 0)
	s := NewProjectileSystem(state, field)
	entity, ok := s.Spawn(centerRect, "not-a-colour", "x", nil)
	if !ok {
		t.Fatal("Spawn() should accept invalid colours")
	}
	proj, _ := ecs.GetComponent[*components.ProjectileComponent](state.EntityManager, entity)
	if proj.ColorHex == "not-a-colour" {
		t.Errorf("invalid colour kept: %q", proj.ColorHex)
	}
}

func TestProjectileLargeStepCarriesOverflow(t *testing.T) {
	state, field := newTestField(t, 0)
	s := NewProjectileSystem(state, field)
	completed := 0
	entity, _ := s.Spawn(centerRect, "#fff", "jump", func() { completed++ })

	// 一帧跨越 pulse、wander 和 flight
	p := state.Params
	s.Update(p.PulseSeconds() + p.WanderSeconds() + p.FlightDuration + 0.1)
	if got := phaseOf(t, s, entity); got != components.PhaseSettling {
		t.Fatalf("phase = %s, want settling", got)
	}
	if completed != 1 {
		t.Errorf("onComplete fired %d times, want 1", completed)
	}
	proj, _ := ecs.GetComponent[*components.ProjectileComponent](state.EntityManager, entity)
	if math.Abs(proj.PhaseElapsed-0.1) > 1e-9 {
		t.Errorf("overflow = %v, want 0.1", proj.PhaseElapsed)
	}
}

func TestProjectileDispose(t *testing.T) {
	state, field := newTestField(t, 0)
	s := NewProjectileSystem(state, field)
	a, _ := s.Spawn(centerRect, "#fff", "a", nil)
	b, _ := s.Spawn(centerRect, "#fff", "b", nil)
	s.Update(testFrame)

	s.Dispose()
	if s.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d after Dispose", s.ActiveCount())
	}
	for _, e := range []ecs.EntityID{a, b} {
		if state.EntityManager.Exists(e) {
			t.Errorf("entity %d still exists", e)
		}
	}
}

func TestProjectileDuplicateIDIsDestroyed(t *testing.T) {
	state, field := newTestField(t, 0)
	s := NewProjectileSystem(state, field)

	// 预先占用下一次发射将使用的 ID
	dupID := fmt.Sprintf("p-%d-%d", state.NowMillis(), 1)
	existing, err := field.AddSettled(dupID, "old", "#ffffff", 1, vmath.V3(1, 2, 3))
	if err != nil {
		t.Fatalf("AddSettled() error: %v", err)
	}

	settled := 0
	s.SetSettleHandler(func(ecs.EntityID, *components.SettledComponent, vmath.Vec3) { settled++ })
	entity, ok := s.Spawn(centerRect, "#6366f1", "dup", nil)
	if !ok {
		t.Fatal("Spawn() returned false")
	}
	runFrames(12, func(dt float64) { s.Update(dt) })
	state.EntityManager.RemoveMarkedEntities()

	if s.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", s.ActiveCount())
	}
	if state.EntityManager.Exists(entity) {
		t.Error("particle that failed to register should be destroyed")
	}
	if settled != 0 {
		t.Errorf("settle handler fired %d times, want 0", settled)
	}
	if field.SettledCount() != 1 || !state.EntityManager.Exists(existing) {
		t.Errorf("existing settled particle disturbed: count=%d", field.SettledCount())
	}
}
