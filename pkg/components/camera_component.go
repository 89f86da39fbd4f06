package components

import "github.com/decker502/nebula/pkg/vmath"

// CameraMove 镜头动画类型
type CameraMove int

const (
	CameraMoveNone CameraMove = iota
	// CameraMoveAdvance 推进到目标位置
	CameraMoveAdvance
	// CameraMoveReturn 返回静止位置
	CameraMoveReturn
)

func (m CameraMove) String() string {
	switch m {
	case CameraMoveAdvance:
		return "advance"
	case CameraMoveReturn:
		return "return"
	default:
		return "none"
	}
}

// CameraComponent 管理镜头的动画状态。
// 同一时间只有一个动画；开始新动画会覆盖正在进行的动画。
type CameraComponent struct {
	// Move 当前动画类型
	Move CameraMove

	// IsAnimating 是否正在动画中
	IsAnimating bool

	// StartPosition 动画起点（开始时捕获）
	StartPosition vmath.Vec3

	// EndPosition 动画终点
	EndPosition vmath.Vec3

	// LookAt 每一步都重新对准的点（星云中心）
	LookAt vmath.Vec3

	// Duration 总时长（秒）
	Duration float64

	// Elapsed 已用时间（秒）
	Elapsed float64

	// OnComplete 动画完成时调用；被覆盖的动画不会调用
	OnComplete func()
}
