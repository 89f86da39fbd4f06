package systems

import (
	"math"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/vmath"
)

// HitTestSystem 指针拾取
//
// 优先级：已落定粒子（clickRadius 容差）→ 环境粒子（ambientPickThreshold 容差）→ 无命中。
// 无命中是正常结果，不是错误。
type HitTestSystem struct {
	state *game.SceneState
	field *NebulaField
}

// NewHitTestSystem creates a hit tester over the field.
func NewHitTestSystem(state *game.SceneState, field *NebulaField) *HitTestSystem {
	return &HitTestSystem{state: state, field: field}
}

// PickScreen 从屏幕坐标发出射线拾取
func (h *HitTestSystem) PickScreen(sx, sy float64) (NebulaParticle, bool) {
	if h.state == nil || h.state.Camera == nil {
		return NebulaParticle{}, false
	}
	return h.PickRay(h.state.Camera.RayFromScreen(sx, sy))
}

// PickRay 用射线拾取，返回命中的粒子
func (h *HitTestSystem) PickRay(ray vmath.Ray) (NebulaParticle, bool) {
	if tag, ok := h.pickSettled(ray); ok {
		return h.field.Resolve(tag)
	}
	if tag, ok := h.pickAmbient(ray); ok {
		return h.field.Resolve(tag)
	}
	return NebulaParticle{}, false
}

// pickSettled 取射线垂直距离最小的已落定粒子，距离必须小于 clickRadius
func (h *HitTestSystem) pickSettled(ray vmath.Ray) (PickTag, bool) {
	em := h.state.EntityManager
	best := math.Inf(1)
	var bestEntity ecs.EntityID
	for _, entity := range h.field.Settled() {
		sprite, ok := ecs.GetComponent[*components.SpriteComponent](em, entity)
		if !ok || !sprite.Visible {
			continue
		}
		tr, ok := ecs.GetComponent[*components.TransformComponent](em, entity)
		if !ok {
			continue
		}
		d := ray.DistanceToPoint(h.field.LocalToWorld(tr.Position))
		if d < best {
			best = d
			bestEntity = entity
		}
	}
	if bestEntity == 0 || best >= h.state.Params.ClickRadius {
		return PickTag{}, false
	}
	return h.field.Pick(bestEntity)
}

// pickAmbient 容差内的环境粒子中取沿射线最近的一个
func (h *HitTestSystem) pickAmbient(ray vmath.Ray) (PickTag, bool) {
	threshold := h.state.Params.AmbientPickThreshold
	if threshold <= 0 {
		return PickTag{}, false
	}
	bestT := math.Inf(1)
	bestIndex := -1
	for i, pt := range h.field.Ambient() {
		world := h.field.LocalToWorld(pt.Position)
		t := ray.ClosestT(world)
		if t <= 0 || t >= bestT {
			continue
		}
		if ray.At(t).Distance(world) < threshold {
			bestT = t
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return PickTag{}, false
	}
	return PickTag{Kind: PickAmbient, Index: bestIndex}, true
}
