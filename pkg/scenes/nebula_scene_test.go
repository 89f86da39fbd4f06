package scenes

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/vmath"
)

const frame = 1.0 / 60.0

var launchRect = vmath.Rect{X: 600, Y: 600, W: 80, H: 40}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

// newTestScene 小规模星云、固定种子、已就绪的视口
func newTestScene(t *testing.T, store game.RecordStore, mutate func(p *config.AnimationParams)) *NebulaScene {
	t.Helper()
	p := config.DefaultAnimationParams()
	p.AmbientCount = 50
	if mutate != nil {
		mutate(p)
	}
	s, err := NewNebulaScene(Options{
		Params: p,
		Store:  store,
		Width:  1280,
		Height: 720,
		Seed:   7,
		Now:    fixedNow,
	})
	if err != nil {
		t.Fatalf("NewNebulaScene() error: %v", err)
	}
	t.Cleanup(s.Dispose)
	return s
}

func advance(s *NebulaScene, seconds float64) {
	frames := int(seconds/frame + 0.5)
	for i := 0; i < frames; i++ {
		s.Update(frame)
	}
}

// lifetime 从发射到落定的总时长（秒）
func lifetime(p *config.AnimationParams) float64 {
	return p.PulseSeconds() + p.WanderSeconds() + p.FlightDuration + p.SettleSeconds()
}

func TestSceneSpawnSettlesAndPersists(t *testing.T) {
	store := game.NewMemoryRecordStore()
	s := newTestScene(t, store, nil)

	completed := 0
	if !s.Spawn(launchRect, "#6366f1", "hello", func() { completed++ }) {
		t.Fatal("Spawn() returned false on a ready scene")
	}
	advance(s, lifetime(s.Params())+0.2)

	if completed != 1 {
		t.Errorf("onComplete fired %d times, want 1", completed)
	}
	if s.Projectiles().ActiveCount() != 0 {
		t.Errorf("%d particles still in flight", s.Projectiles().ActiveCount())
	}
	if s.Field().SettledCount() != 1 {
		t.Fatalf("SettledCount() = %d, want 1", s.Field().SettledCount())
	}

	records, err := store.LoadRecords()
	if err != nil {
		t.Fatalf("LoadRecords() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Text != "hello" || rec.Color != "#6366f1" || rec.Timestamp != fixedNow().UnixMilli() {
		t.Errorf("record = %+v", rec)
	}
	p, ok := s.LookupParticle(rec.ID)
	if !ok {
		t.Fatalf("LookupParticle(%s) failed", rec.ID)
	}
	if !p.Local.ApproxEqual(rec.Position.Vec3(), 1e-9) {
		t.Errorf("record position %+v != settled local %+v", rec.Position, p.Local)
	}
}

func TestSceneArchiveKeepsNewest(t *testing.T) {
	var seed []game.ParticleRecord
	for i := 0; i < config.SettledArchiveLimit; i++ {
		seed = append(seed, game.ParticleRecord{
			ID:       fmt.Sprintf("r-%d", i),
			Text:     "old",
			Color:    "#ffffff",
			Position: game.RecordPosition{X: float64(i % 10), Z: float64(i / 10)},
		})
	}
	store := game.NewMemoryRecordStore(seed...)
	s := newTestScene(t, store, nil)
	if s.Field().SettledCount() != config.SettledArchiveLimit {
		t.Fatalf("rehydrated %d, want %d", s.Field().SettledCount(), config.SettledArchiveLimit)
	}

	s.Spawn(launchRect, "#22c55e", "newest", nil)
	advance(s, lifetime(s.Params())+0.2)

	records, _ := store.LoadRecords()
	if len(records) != config.SettledArchiveLimit {
		t.Fatalf("archive size = %d, want %d", len(records), config.SettledArchiveLimit)
	}
	if records[0].ID != "r-1" {
		t.Errorf("oldest record = %s, want r-1", records[0].ID)
	}
	if last := records[len(records)-1]; last.Text != "newest" {
		t.Errorf("newest record = %+v", last)
	}
}

func TestScenePersistFailureIsLogged(t *testing.T) {
	store := game.NewMemoryRecordStore()
	store.FailSave = errors.New("disk full")
	s := newTestScene(t, store, nil)

	completed := 0
	s.Spawn(launchRect, "#6366f1", "x", func() { completed++ })
	advance(s, lifetime(s.Params())+0.2)
	if completed != 1 || s.Field().SettledCount() != 1 {
		t.Errorf("save failure should not affect the animation: completed=%d settled=%d",
			completed, s.Field().SettledCount())
	}
}

func TestSceneNotReadyUntilResize(t *testing.T) {
	p := config.DefaultAnimationParams()
	p.AmbientCount = 10
	s, err := NewNebulaScene(Options{Params: p, Seed: 3, Now: fixedNow})
	if err != nil {
		t.Fatalf("NewNebulaScene() error: %v", err)
	}
	defer s.Dispose()

	ready := 0
	s.SetOnReady(func() { ready++ })
	if s.Spawn(launchRect, "#fff", "early", nil) {
		t.Error("Spawn() before the surface is ready should return false")
	}
	if s.AnimateCamera(nil) {
		t.Error("AnimateCamera() before the surface is ready should return false")
	}
	s.Update(frame)
	if ready != 0 {
		t.Fatal("onReady fired before the surface existed")
	}

	s.Resize(800, 600)
	s.Update(frame)
	s.Resize(1024, 768)
	if ready != 1 {
		t.Errorf("onReady fired %d times, want 1", ready)
	}
	if !s.Spawn(launchRect, "#fff", "late", nil) {
		t.Error("Spawn() after Resize should succeed")
	}
}

func TestSceneOnReadyFiresOnceWhenAlreadyReady(t *testing.T) {
	s := newTestScene(t, nil, nil)
	ready := 0
	s.SetOnReady(func() { ready++ })
	advance(s, 0.1)
	if ready != 1 {
		t.Errorf("onReady fired %d times, want 1", ready)
	}
}

func TestSceneCameraAdvanceThenReset(t *testing.T) {
	s := newTestScene(t, nil, nil)
	advanced, reset := 0, 0
	s.AnimateCamera(func() { advanced++ })
	s.ResetCamera(func() { reset++ })
	advance(s, s.Params().CameraPanDuration+0.2)

	if s.Camera().Position != s.Params().CameraRestPosition {
		t.Errorf("camera at %+v, want rest", s.Camera().Position)
	}
	if advanced != 0 || reset != 1 {
		t.Errorf("callbacks advanced=%d reset=%d, want 0 and 1", advanced, reset)
	}
	if s.CameraAnimating() {
		t.Error("camera should be idle")
	}
}

func TestSceneUpdateParams(t *testing.T) {
	s := newTestScene(t, nil, nil)

	next := s.Params().Clone()
	next.CameraRestPosition = vmath.V3(0, 8, 90)
	next.AmbientCount = 80
	if err := s.UpdateParams(next); err != nil {
		t.Fatalf("UpdateParams() error: %v", err)
	}
	if s.Camera().Position != next.CameraRestPosition {
		t.Errorf("idle camera should snap to the new rest position, got %+v", s.Camera().Position)
	}
	if got := len(s.Field().Ambient()); got != 80 {
		t.Errorf("ambient count = %d, want 80", got)
	}

	// 调用方之后修改自己的副本不影响场景
	next.AmbientCount = 5
	if s.Params().AmbientCount != 80 {
		t.Error("scene should keep its own copy of the params")
	}

	bad := s.Params().Clone()
	bad.ClickRadius = 0
	if err := s.UpdateParams(bad); !errors.Is(err, config.ErrInvalidParams) {
		t.Errorf("UpdateParams(invalid) error = %v, want ErrInvalidParams", err)
	}
	if s.Params().ClickRadius != config.DefaultAnimationParams().ClickRadius {
		t.Error("invalid params should leave the snapshot unchanged")
	}
}

func TestSceneInvalidParamsRejected(t *testing.T) {
	p := config.DefaultAnimationParams()
	p.FlightDuration = 0
	if _, err := NewNebulaScene(Options{Params: p, Width: 10, Height: 10}); !errors.Is(err, config.ErrInvalidParams) {
		t.Errorf("NewNebulaScene(invalid) error = %v", err)
	}
}

func TestSceneClickAndHighlight(t *testing.T) {
	store := game.NewMemoryRecordStore(game.ParticleRecord{ID: "p-1", Text: "center", Color: "#6366f1"})
	s := newTestScene(t, store, func(p *config.AnimationParams) { p.AmbientCount = 0 })

	var clicked []NebulaParticle
	s.SetOnParticleClick(func(p NebulaParticle) { clicked = append(clicked, p) })

	p, ok := s.HandleClick(640, 360)
	if !ok || p.ID != "p-1" {
		t.Fatalf("HandleClick(center) = %+v, %v", p, ok)
	}
	if len(clicked) != 1 || clicked[0].Text != "center" {
		t.Errorf("onParticleClick calls = %+v", clicked)
	}
	if _, ok := s.HandleClick(5, 5); ok {
		t.Error("click on empty space should miss")
	}
	if len(clicked) != 1 {
		t.Error("a miss should not call onParticleClick")
	}

	id := "p-1"
	if !s.HighlightParticle(&id) {
		t.Fatal("HighlightParticle() returned false")
	}
	advance(s, 0.5)
	if h, ok := s.HighlightedParticle(); !ok || h.ID != "p-1" {
		t.Errorf("HighlightedParticle() = %+v, %v", h, ok)
	}
	x, y, ok := s.GetHighlightedParticleScreenPosition()
	if !ok {
		t.Fatal("GetHighlightedParticleScreenPosition() unavailable")
	}
	if x < 620 || x > 660 || y < 340 || y > 380 {
		t.Errorf("screen position = (%v, %v), want near the center", x, y)
	}

	s.ClearHighlight()
	if _, _, ok := s.GetHighlightedParticleScreenPosition(); ok {
		t.Error("screen position should be unavailable after clearing")
	}
	if !s.HighlightVisible() {
		t.Error("highlight should still be fading out")
	}
	advance(s, 1)
	if s.HighlightVisible() || s.HighlightFade() != 0 {
		t.Error("highlight should be gone after fading out")
	}
}

func TestSceneRandomParticle(t *testing.T) {
	s := newTestScene(t, nil, nil)
	for i := 0; i < 20; i++ {
		if _, ok := s.GetRandomNebulaParticle(); !ok {
			t.Fatal("GetRandomNebulaParticle() found nothing")
		}
	}
}

func TestSceneDragPausesRotation(t *testing.T) {
	s := newTestScene(t, nil, nil)
	s.BeginDrag()
	advance(s, 0.1)
	before := s.Field().Transform.RotationY
	advance(s, 0.5)
	if s.Field().Transform.RotationY != before {
		t.Error("field rotated while dragging")
	}
	s.DragBy(100)
	if d := s.Field().Transform.RotationY - before; d < 0.499 || d > 0.501 {
		t.Errorf("drag of 100px rotated by %v, want 0.5", d)
	}
	s.EndDrag()
}

func TestSceneDisposeIdempotent(t *testing.T) {
	s := newTestScene(t, nil, nil)
	s.Spawn(launchRect, "#fff", "x", nil)
	advance(s, 0.5)

	s.Dispose()
	s.Dispose()
	if !s.Disposed() {
		t.Fatal("Disposed() = false")
	}
	if s.Spawn(launchRect, "#fff", "y", nil) {
		t.Error("Spawn() after Dispose should return false")
	}
	if _, ok := s.GetRandomNebulaParticle(); ok {
		t.Error("GetRandomNebulaParticle() after Dispose should find nothing")
	}
	if s.EntityManager().EntityCount() != 0 {
		t.Errorf("%d entities survive Dispose", s.EntityManager().EntityCount())
	}
	s.Update(frame)
}
