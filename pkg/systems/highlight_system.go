package systems

import (
	"log"
	"math"

	"github.com/decker502/nebula/pkg/game"
)

// HighlightVisibleEpsilon 淡出到此值以下时高亮精灵不可见
const HighlightVisibleEpsilon = 0.01

// HighlightSystem 高亮淡入淡出和脉动
//
// fade 以固定速率逼近目标（有高亮目标时为 1，否则为 0）；
// 淡出过程中保留最后一个粒子，使画面不会突然消失。
type HighlightSystem struct {
	state *game.SceneState
	field *NebulaField

	particle NebulaParticle
	has      bool // 是否有粒子可绘制（淡出期间仍为 true）
	wanted   bool // 目标是否为 1

	fade  float64
	pulse float64 // 脉动计时（秒）

	// 每帧计算的视觉状态
	Scale   float64
	Opacity float64
	Visible bool

	screenX, screenY float64
	screenOK         bool
}

// NewHighlightSystem creates an idle highlighter.
func NewHighlightSystem(state *game.SceneState, field *NebulaField) *HighlightSystem {
	return &HighlightSystem{state: state, field: field, Scale: 1}
}

// Highlight 设置高亮目标；id 为 nil 时淡出
//
// 找不到 id 时按 nil 处理并返回 false。
func (h *HighlightSystem) Highlight(id *string) bool {
	if id == nil {
		h.wanted = false
		return true
	}
	p, ok := h.field.LookupByID(*id)
	if !ok {
		log.Printf("[HighlightSystem] unknown particle %q", *id)
		h.wanted = false
		return false
	}
	if !h.has || h.particle.ID != p.ID {
		h.pulse = 0
	}
	h.particle = p
	h.has = true
	h.wanted = true
	return true
}

// Fade 当前淡入系数 0..1
func (h *HighlightSystem) Fade() float64 { return h.fade }

// Particle 当前（或正在淡出的）高亮粒子
func (h *HighlightSystem) Particle() (NebulaParticle, bool) {
	return h.particle, h.has
}

// Active reports whether a particle is requested highlighted.
func (h *HighlightSystem) Active() bool { return h.wanted }

// ScreenPosition 高亮粒子本帧的屏幕坐标；没有高亮或不在视野内时 ok 为 false
func (h *HighlightSystem) ScreenPosition() (x, y float64, ok bool) {
	if !h.wanted || !h.screenOK {
		return 0, 0, false
	}
	return h.screenX, h.screenY, true
}

// Update 推进淡入淡出、脉动，并重新计算屏幕坐标
func (h *HighlightSystem) Update(dt float64) {
	target := 0.0
	if h.wanted {
		target = 1
	}
	step := h.state.Params.HighlightFadeRate * dt
	if h.fade < target {
		h.fade = math.Min(target, h.fade+step)
	} else if h.fade > target {
		h.fade = math.Max(target, h.fade-step)
	}

	if !h.has {
		h.Visible = false
		h.screenOK = false
		return
	}

	// 跟随星云旋转和形态变化
	if live, ok := h.field.LookupByID(h.particle.ID); ok {
		h.particle = live
	}

	h.Visible = h.fade >= HighlightVisibleEpsilon
	if h.Visible {
		h.pulse += dt
		wave := math.Sin(2 * math.Pi * h.state.Params.HighlightPulseFrequency * h.pulse)
		h.Scale = 1 + 0.2*wave
		h.Opacity = h.fade * (0.8 + 0.2*wave)
	} else {
		h.Scale = 1
		h.Opacity = 0
		if !h.wanted {
			h.has = false
		}
	}

	h.screenX, h.screenY, _, h.screenOK = h.state.Camera.Project(h.particle.World)
}

// Reset 立即清除高亮（场景释放时调用）
func (h *HighlightSystem) Reset() {
	*h = HighlightSystem{state: h.state, field: h.field, Scale: 1}
}
