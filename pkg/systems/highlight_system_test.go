package systems

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func TestHighlightFadeInAndOut(t *testing.T) {
	state, field := newTestField(t, 5)
	h := NewHighlightSystem(state, field)

	if !h.Highlight(strPtr("ambient-2")) {
		t.Fatal("Highlight(ambient-2) returned false")
	}
	runFrames(1/state.Params.HighlightFadeRate+0.1, h.Update)
	if h.Fade() != 1 {
		t.Fatalf("fade after fade-in = %v, want 1", h.Fade())
	}
	if !h.Visible {
		t.Error("highlight should be visible")
	}
	if _, _, ok := h.ScreenPosition(); !ok {
		t.Error("ScreenPosition() should be available while highlighted")
	}
	if h.Scale < 0.8 || h.Scale > 1.2 {
		t.Errorf("pulse scale %v outside [0.8, 1.2]", h.Scale)
	}

	h.Highlight(nil)
	if _, _, ok := h.ScreenPosition(); ok {
		t.Error("ScreenPosition() should report nothing after clearing")
	}
	prev := h.Fade()
	for i := 0; i < 60; i++ {
		h.Update(testFrame)
		fade := h.Fade()
		if fade > prev {
			t.Fatalf("fade increased while fading out: %v → %v", prev, fade)
		}
		if h.Visible != (fade >= HighlightVisibleEpsilon) {
			t.Fatalf("Visible = %v at fade %v", h.Visible, fade)
		}
		if h.Visible {
			if p, ok := h.Particle(); !ok || p.ID != "ambient-2" {
				t.Fatalf("fading sprite lost its particle: %+v", p)
			}
		}
		prev = fade
	}
	if h.Fade() != 0 || h.Visible {
		t.Errorf("after fade-out fade = %v visible = %v", h.Fade(), h.Visible)
	}
	if _, ok := h.Particle(); ok {
		t.Error("particle should be released once fully faded")
	}
}

func TestHighlightUnknownID(t *testing.T) {
	state, field := newTestField(t, 2)
	h := NewHighlightSystem(state, field)
	if h.Highlight(strPtr("missing")) {
		t.Error("unknown id should return false")
	}
	if h.Active() {
		t.Error("unknown id should not activate the highlight")
	}
	h.Update(testFrame)
	if h.Visible || h.Fade() != 0 {
		t.Errorf("visible = %v fade = %v", h.Visible, h.Fade())
	}
}

func TestHighlightFollowsFieldRotation(t *testing.T) {
	state, field := newTestField(t, 5)
	state.Params.AmbientRotationSpeed = 2
	h := NewHighlightSystem(state, field)
	h.Highlight(strPtr("ambient-4"))
	h.Update(testFrame)
	x0, y0, ok := h.ScreenPosition()
	if !ok {
		t.Fatal("ScreenPosition() unavailable")
	}

	runFrames(0.5, func(dt float64) {
		field.Update(dt)
		h.Update(dt)
	})
	x1, y1, ok := h.ScreenPosition()
	if !ok {
		t.Fatal("ScreenPosition() unavailable after rotation")
	}
	if x0 == x1 && y0 == y1 {
		t.Error("screen position should track the rotating field")
	}
}

func TestHighlightReset(t *testing.T) {
	state, field := newTestField(t, 2)
	h := NewHighlightSystem(state, field)
	h.Highlight(strPtr("ambient-0"))
	h.Update(testFrame)
	h.Reset()
	if h.Active() || h.Fade() != 0 || h.Visible {
		t.Error("Reset() should clear the highlight immediately")
	}
}
