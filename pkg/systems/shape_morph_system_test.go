package systems

import (
	"testing"

	"github.com/decker502/nebula/pkg/vmath"
)

func TestBlendPositions(t *testing.T) {
	baseline := []vmath.Vec3{{X: 0}, {Y: 2}}
	target := []vmath.Vec3{{X: 10}, {Y: 4}}
	dst := make([]vmath.Vec3, 2)

	BlendPositions(dst, baseline, target, 0)
	if dst[0] != baseline[0] || dst[1] != baseline[1] {
		t.Errorf("e=0: got %+v, want baseline", dst)
	}
	BlendPositions(dst, baseline, target, 0.5)
	if !dst[0].ApproxEqual(vmath.V3(5, 0, 0), 1e-12) || !dst[1].ApproxEqual(vmath.V3(0, 3, 0), 1e-12) {
		t.Errorf("e=0.5: got %+v", dst)
	}
	BlendPositions(dst, baseline, target, 1)
	if dst[0] != target[0] || dst[1] != target[1] {
		t.Errorf("e=1: got %+v, want target", dst)
	}
}

func TestShapeModeOrder(t *testing.T) {
	if ShapeSpiral.Next() != ShapeRiver || ShapeRiver.Next() != ShapeWave || ShapeWave.Next() != ShapeSpiral {
		t.Error("round robin order should be spiral → river → wave → spiral")
	}
	if ShapeSpiral.String() != "ambient-spiral" {
		t.Errorf("ShapeSpiral.String() = %q", ShapeSpiral.String())
	}
}

func TestShapeMorphRoundRobin(t *testing.T) {
	state, field := newTestField(t, 64)
	state.Params.ShapeDuration = 1
	state.Params.ShapeTransitionDuration = 0.5
	morph := NewShapeMorphSystem(field)

	var changes [][2]ShapeMode
	morph.OnModeChange = func(from, to ShapeMode) {
		changes = append(changes, [2]ShapeMode{from, to})
	}
	runFrames(4.7, func(dt float64) {
		state.Clock += dt
		morph.Update(dt)
	})

	want := [][2]ShapeMode{
		{ShapeSpiral, ShapeRiver},
		{ShapeRiver, ShapeWave},
		{ShapeWave, ShapeSpiral},
	}
	if len(changes) != len(want) {
		t.Fatalf("mode changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, changes[i], want[i])
		}
	}
}

func TestShapeMorphSingleTransition(t *testing.T) {
	_, field := newTestField(t, 16)
	morph := NewShapeMorphSystem(field)

	if morph.BeginTransition(ShapeSpiral) {
		t.Error("transition to the current mode should be rejected")
	}
	if !morph.BeginTransition(ShapeRiver) {
		t.Fatal("BeginTransition(river) rejected")
	}
	if morph.BeginTransition(ShapeWave) {
		t.Error("second transition should be rejected while one is in flight")
	}
	if morph.TargetMode() != ShapeRiver || morph.Mode() != ShapeSpiral {
		t.Errorf("mode = %s target = %s", morph.Mode(), morph.TargetMode())
	}
}

func TestShapeMorphEndsExactlyOnTarget(t *testing.T) {
	state, field := newTestField(t, 32)
	state.Params.ShapeTransitionDuration = 0.5
	morph := NewShapeMorphSystem(field)

	morph.BeginTransition(ShapeRiver)
	for i := 0; i < 100 && morph.Transitioning(); i++ {
		morph.Update(testFrame)
	}
	if morph.Transitioning() || morph.Mode() != ShapeRiver {
		t.Fatalf("transition did not finish, mode %s", morph.Mode())
	}

	gen := field.Shapes()
	n := len(field.Ambient())
	for i, pt := range field.Ambient() {
		want := gen.Position(ShapeRiver, i, n, state.Params, state.Clock, 0)
		if pt.Position != want {
			t.Fatalf("point %d = %+v, want %+v", i, pt.Position, want)
		}
	}
}

func TestShapeMorphSpiralIsStatic(t *testing.T) {
	state, field := newTestField(t, 32)
	morph := NewShapeMorphSystem(field)
	before := field.Ambient()[7].Position

	runFrames(1, func(dt float64) {
		state.Clock += dt
		morph.Update(dt)
	})
	if field.Ambient()[7].Position != before {
		t.Error("spiral points should not move while holding")
	}
}

func TestShapeMorphWaveAnimates(t *testing.T) {
	state, field := newTestField(t, 36)
	state.Params.ShapeTransitionDuration = 0.1
	morph := NewShapeMorphSystem(field)
	morph.BeginTransition(ShapeWave)
	for i := 0; i < 100 && morph.Transitioning(); i++ {
		morph.Update(testFrame)
	}

	before := field.Ambient()[5].Position
	state.Clock += 0.25
	morph.Update(testFrame)
	after := field.Ambient()[5].Position
	if before.Y == after.Y {
		t.Error("wave height should change as the clock advances")
	}
	if before.X != after.X || before.Z != after.Z {
		t.Error("wave grid should only move vertically")
	}
}

func TestShapeMorphRegeneratedFieldResets(t *testing.T) {
	_, field := newTestField(t, 16)
	morph := NewShapeMorphSystem(field)
	morph.BeginTransition(ShapeRiver)

	field.Regenerate(24)
	morph.Update(testFrame)
	if morph.Mode() != ShapeSpiral {
		t.Errorf("mode after regenerate = %s, want spiral", morph.Mode())
	}
	if morph.Transitioning() {
		t.Error("transition should be discarded after regenerate")
	}
}

func TestShapeMorphRiverFlowWraps(t *testing.T) {
	state, field := newTestField(t, 48)
	state.Params.ShapeDuration = 1000
	state.Params.ShapeTransitionDuration = 0.1
	state.Params.RiverFlowSpeed = 0.3
	morph := NewShapeMorphSystem(field)
	morph.BeginTransition(ShapeRiver)
	for i := 0; i < 100 && morph.Transitioning(); i++ {
		morph.Update(testFrame)
	}
	if morph.Mode() != ShapeRiver {
		t.Fatalf("mode = %s, want river", morph.Mode())
	}

	// 稳定后 flow 持续推进
	start := morph.flow
	runFrames(1, func(dt float64) { morph.Update(dt) })
	if got := morph.flow - start; got < 0.29 || got > 0.31 {
		t.Errorf("flow advanced %v in 1s, want ~0.3", got)
	}

	// 跨过 1 时回绕到 [0,1)
	morph.flow = 0.99
	before := make([]vmath.Vec3, len(field.Ambient()))
	for i, pt := range field.Ambient() {
		before[i] = pt.Position
	}
	morph.Update(0.1)
	if morph.flow < 0 || morph.flow >= 1 || morph.flow > 0.5 {
		t.Fatalf("flow = %v after wrap, want in [0, 0.5)", morph.flow)
	}

	p := state.Params
	gen := field.Shapes()
	n := len(field.Ambient())
	halfSpan := p.AmbientRadius * 1.4
	moved := 0
	for i, pt := range field.Ambient() {
		if pt.Position != before[i] {
			moved++
		}
		if pt.Position.X < -halfSpan || pt.Position.X >= halfSpan {
			t.Errorf("point %d x = %v outside [%v, %v)", i, pt.Position.X, -halfSpan, halfSpan)
		}
		want := gen.Position(ShapeRiver, i, n, p, state.Clock, morph.flow)
		if pt.Position != want {
			t.Fatalf("point %d = %+v, want %+v", i, pt.Position, want)
		}
	}
	if moved != n {
		t.Errorf("%d of %d points moved across the wrap", moved, n)
	}
}
