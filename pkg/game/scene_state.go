package game

import (
	"math/rand"
	"time"

	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/vmath"
)

// SceneState 是各系统共享的场景上下文
//
// 系统只持有 *SceneState，不互相持有，便于单独测试。
type SceneState struct {
	EntityManager *ecs.EntityManager
	Camera        *vmath.Camera
	Params        *config.AnimationParams

	// Clock 场景时间（秒），由场景在每帧开始时推进
	Clock float64

	// Rand 所有随机数的唯一来源；测试中使用固定种子
	Rand *rand.Rand

	// Now 返回墙钟时间，用于记录时间戳
	Now func() time.Time
}

// NewSceneState 创建场景上下文
//
// seed 为 0 时使用当前时间作为种子。
func NewSceneState(params *config.AnimationParams, width, height int, seed int64) *SceneState {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cam := vmath.NewCamera(params.CameraRestPosition, params.FieldCenter, params.CameraFov, float64(width), float64(height))
	return &SceneState{
		EntityManager: ecs.NewEntityManager(),
		Camera:        cam,
		Params:        params,
		Rand:          rand.New(rand.NewSource(seed)),
		Now:           time.Now,
	}
}

// NowMillis 返回毫秒时间戳
func (s *SceneState) NowMillis() int64 {
	return s.Now().UnixMilli()
}
