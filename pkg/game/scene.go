package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents one full-screen view driven by the frame loop.
type Scene interface {
	// Update advances the scene. deltaTime is in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	Draw(screen *ebiten.Image)
}

// Resizable 是一个可选接口：窗口尺寸变化时由 App.Layout 调用
type Resizable interface {
	Resize(width, height int)
}

// Disposable 是一个可选接口：场景被替换或程序退出时释放资源
//
// 实现方必须保证重复调用安全。
type Disposable interface {
	Dispose()
}
