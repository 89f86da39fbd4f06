package config

// 窗口与输入框布局
const (
	// GameWindowWidth / GameWindowHeight 默认窗口尺寸（逻辑像素）
	GameWindowWidth  = 1280
	GameWindowHeight = 720

	// WindowTitle 窗口标题
	WindowTitle = "Nebula"

	// 演示输入框：位于屏幕底部居中，Space 键从这里发射
	InputBoxWidth   = 420.0
	InputBoxHeight  = 44.0
	InputBoxMarginY = 48.0

	// SettledArchiveLimit 跨会话保存的已落定粒子上限（保留最新的）
	SettledArchiveLimit = 100
)
