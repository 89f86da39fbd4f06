package components

import "github.com/lucasb-eyer/go-colorful"

// SpriteComponent 点精灵的视觉句柄
//
// 渲染系统按 Size（世界单位）和镜头深度计算屏幕尺寸，
// HasCore 为 true 时额外绘制一个更亮的小核心。
type SpriteComponent struct {
	Color   colorful.Color
	Size    float64
	HasCore bool
	Visible bool
}
