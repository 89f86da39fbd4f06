package systems

import (
	"testing"

	"github.com/decker502/nebula/pkg/vmath"
)

// newPickField 单位变换下的星云：一个已落定粒子在原点，三个环境粒子位置固定
func newPickField(t *testing.T) *HitTestSystem {
	t.Helper()
	state, field := newTestField(t, 3)
	pts := field.Ambient()
	pts[0].Position = vmath.V3(0, 3, 0)
	pts[1].Position = vmath.V3(0, 3, -5)
	pts[2].Position = vmath.V3(100, 100, 100)
	if _, err := field.AddSettled("p-1", "hello", "#6366f1", 1, vmath.Vec3{}); err != nil {
		t.Fatalf("AddSettled() error: %v", err)
	}
	return NewHitTestSystem(state, field)
}

func TestHitTestPriority(t *testing.T) {
	h := newPickField(t)
	forward := vmath.V3(0, 0, -1)

	tests := []struct {
		name   string
		origin vmath.Vec3
		wantID string
		wantOK bool
	}{
		{"settled within click radius", vmath.V3(0, 1, 10), "p-1", true},
		{"falls through to nearest ambient", vmath.V3(0, 3.2, 10), "ambient-0", true},
		{"ambient threshold exceeded", vmath.V3(0.5, 3.5, 10), "", false},
		{"nothing", vmath.V3(50, -50, 10), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := h.PickRay(vmath.NewRay(tt.origin, forward))
			if ok != tt.wantOK {
				t.Fatalf("PickRay() ok = %v, want %v (got %+v)", ok, tt.wantOK, p)
			}
			if ok && p.ID != tt.wantID {
				t.Errorf("PickRay() = %s, want %s", p.ID, tt.wantID)
			}
		})
	}
}

func TestHitTestAmbientBehindOriginIgnored(t *testing.T) {
	h := newPickField(t)
	// 射线从两个环境粒子之间出发，只能命中前方的 ambient-1
	p, ok := h.PickRay(vmath.NewRay(vmath.V3(0, 3.2, -2), vmath.V3(0, 0, -1)))
	if !ok || p.ID != "ambient-1" {
		t.Errorf("PickRay() = %+v, %v, want ambient-1", p, ok)
	}
}

func TestHitTestScreenCenter(t *testing.T) {
	state, field := newTestField(t, 0)
	if _, err := field.AddSettled("p-1", "hello", "#6366f1", 1, vmath.Vec3{}); err != nil {
		t.Fatalf("AddSettled() error: %v", err)
	}
	h := NewHitTestSystem(state, field)

	// 镜头对准星云中心，屏幕中心的射线穿过原点
	p, ok := h.PickScreen(640, 360)
	if !ok || p.ID != "p-1" {
		t.Errorf("PickScreen(center) = %+v, %v", p, ok)
	}
	state.Camera = nil
	if _, ok := h.PickScreen(640, 360); ok {
		t.Error("PickScreen() without a camera should miss")
	}
}
