package systems

import (
	"log"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/vmath"
)

// CameraSystem 管理镜头推进/返回动画。
// 每一步都重新对准星云中心；同一时间只有一个动画，新动画覆盖旧动画。
type CameraSystem struct {
	state        *game.SceneState
	cameraEntity ecs.EntityID // 镜头实体ID

	// Ease 位置插值的缓动函数
	Ease vmath.EaseFunc
}

// NewCameraSystem 创建镜头控制系统，并把镜头放到静止位置。
func NewCameraSystem(state *game.SceneState) *CameraSystem {
	cs := &CameraSystem{
		state: state,
		Ease:  vmath.EaseInOutCubic,
	}

	cs.cameraEntity = state.EntityManager.CreateEntity()
	ecs.AddComponent(state.EntityManager, cs.cameraEntity, &components.CameraComponent{
		Move:     components.CameraMoveNone,
		LookAt:   state.Params.FieldCenter,
		Duration: state.Params.CameraPanDuration,
	})

	state.Camera.Position = state.Params.CameraRestPosition
	state.Camera.LookAt(state.Params.FieldCenter)
	return cs
}

func (cs *CameraSystem) component() (*components.CameraComponent, bool) {
	return ecs.GetComponent[*components.CameraComponent](cs.state.EntityManager, cs.cameraEntity)
}

// Advance 推进到目标位置
func (cs *CameraSystem) Advance(onComplete func()) {
	cs.AnimateTo(cs.state.Params.CameraTargetPosition, components.CameraMoveAdvance, onComplete)
}

// Return 返回静止位置
func (cs *CameraSystem) Return(onComplete func()) {
	cs.AnimateTo(cs.state.Params.CameraRestPosition, components.CameraMoveReturn, onComplete)
}

// AnimateTo 从当前位置移动到 end。
// 正在进行的动画被直接覆盖，它的回调不会被调用。
func (cs *CameraSystem) AnimateTo(end vmath.Vec3, move components.CameraMove, onComplete func()) {
	cameraComp, ok := cs.component()
	if !ok {
		return
	}
	if cameraComp.IsAnimating {
		log.Printf("[CameraSystem] %s overrides %s", move, cameraComp.Move)
	}

	cameraComp.Move = move
	cameraComp.IsAnimating = true
	cameraComp.StartPosition = cs.state.Camera.Position
	cameraComp.EndPosition = end
	cameraComp.LookAt = cs.state.Params.FieldCenter
	cameraComp.Duration = cs.state.Params.CameraPanDuration
	cameraComp.Elapsed = 0
	cameraComp.OnComplete = onComplete
}

// Update 推进镜头动画
func (cs *CameraSystem) Update(dt float64) {
	cameraComp, ok := cs.component()
	if !ok || !cameraComp.IsAnimating {
		return
	}

	cameraComp.Elapsed += dt
	t := 1.0
	if cameraComp.Duration > 0 {
		t = vmath.Clamp01(cameraComp.Elapsed / cameraComp.Duration)
	}

	cam := cs.state.Camera
	if t >= 1 {
		cam.Position = cameraComp.EndPosition
	} else {
		cam.Position = cameraComp.StartPosition.Lerp(cameraComp.EndPosition, cs.Ease(t))
	}
	cam.LookAt(cameraComp.LookAt)

	if t >= 1 {
		cameraComp.IsAnimating = false
		cameraComp.Move = components.CameraMoveNone
		cb := cameraComp.OnComplete
		cameraComp.OnComplete = nil
		if cb != nil {
			cb()
		}
	}
}

// ApplyRestPosition 静止位置变化时调用。
// 没有动画时立即移动镜头；正在返回时改为返回到新位置；正在推进时不受影响。
func (cs *CameraSystem) ApplyRestPosition(rest vmath.Vec3) {
	cameraComp, ok := cs.component()
	if !ok {
		return
	}
	switch {
	case !cameraComp.IsAnimating:
		cs.state.Camera.Position = rest
		cs.state.Camera.LookAt(cs.state.Params.FieldCenter)
	case cameraComp.Move == components.CameraMoveReturn:
		cameraComp.EndPosition = rest
	}
}

// StopAnimation 停止镜头动画，立即设置到终点，不调用回调。
func (cs *CameraSystem) StopAnimation() {
	cameraComp, ok := cs.component()
	if !ok || !cameraComp.IsAnimating {
		return
	}
	cameraComp.IsAnimating = false
	cameraComp.Move = components.CameraMoveNone
	cameraComp.OnComplete = nil
	cs.state.Camera.Position = cameraComp.EndPosition
	cs.state.Camera.LookAt(cameraComp.LookAt)
}

// IsAnimating 返回镜头是否正在动画中。
func (cs *CameraSystem) IsAnimating() bool {
	cameraComp, ok := cs.component()
	if !ok {
		return false
	}
	return cameraComp.IsAnimating
}

// Move 返回当前动画类型
func (cs *CameraSystem) Move() components.CameraMove {
	cameraComp, ok := cs.component()
	if !ok {
		return components.CameraMoveNone
	}
	return cameraComp.Move
}

// Dispose 移除镜头实体
func (cs *CameraSystem) Dispose() {
	cs.state.EntityManager.DestroyEntity(cs.cameraEntity)
	cs.state.EntityManager.RemoveMarkedEntities()
}
