package systems

import (
	"testing"
	"time"

	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/game"
)

// testFrame 模拟 60 FPS
const testFrame = 1.0 / 60.0

// newTestState 固定种子、固定时钟、小规模环境星云
func newTestState(t *testing.T, ambient int) *game.SceneState {
	t.Helper()
	p := config.DefaultAnimationParams()
	p.AmbientCount = ambient
	state := game.NewSceneState(p, 1280, 720, 12345)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	state.Now = func() time.Time { return fixed }
	return state
}

// newTestField 星云变换保持单位旋转（测试中不调用 field.Update）
func newTestField(t *testing.T, ambient int) (*game.SceneState, *NebulaField) {
	t.Helper()
	state := newTestState(t, ambient)
	return state, NewNebulaField(state, NewShapeGenerator(99))
}

// runFrames 以固定帧长推进 fn，直到累计 seconds 秒
func runFrames(seconds float64, fn func(dt float64)) {
	frames := int(seconds/testFrame + 0.5)
	for i := 0; i < frames; i++ {
		fn(testFrame)
	}
}
