// Package app 提供星云查看器的核心包装器
//
// 该包把初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/scenes"
	"github.com/decker502/nebula/pkg/vmath"
)

// clickSlop 按下与抬起之间移动不超过该像素数时视为点击，否则视为拖拽
const clickSlop = 4

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ParamsPath 动画参数 YAML 文件，为空则使用默认参数
	ParamsPath string
	// AppName gdata 存储使用的应用名
	AppName string
	// Seed 随机种子，0 表示使用当前时间
	Seed int64
}

// App 是查看器的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	scene        *scenes.NebulaScene
	settings     *game.SettingsManager
	verbose      bool

	width, height int

	// 指针状态
	pressed    bool
	dragging   bool
	pressX     int
	pressY     int
	lastX      int
	spawnCount int

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化查看器
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	params := config.DefaultAnimationParams()
	if cfg.ParamsPath != "" {
		loaded, err := config.LoadAnimationParams(cfg.ParamsPath)
		if err != nil {
			return nil, fmt.Errorf("动画参数加载失败: %w", err)
		}
		params = loaded
		log.Printf("[App] Loaded animation params from %s", cfg.ParamsPath)
	}

	appName := cfg.AppName
	if appName == "" {
		appName = "nebula"
	}
	store, err := game.OpenGdataRecordStore(appName)
	if err != nil {
		// 存储不可用不影响运行：降级为内存存储
		log.Printf("[App] Warning: %v (records will not persist)", err)
	}
	settings := game.NewSettingsManager(store.Manager())

	scene, err := scenes.NewNebulaScene(scenes.Options{
		Params: params,
		Store:  store,
		Width:  config.GameWindowWidth,
		Height: config.GameWindowHeight,
		Seed:   cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("场景创建失败: %w", err)
	}
	scene.SetShowLabels(settings.GetSettings().ShowLabels)
	scene.SetBrightnessScale(settings.GetSettings().AmbientBrightness)
	scene.SetOnReady(func() {
		log.Printf("[App] Nebula ready")
	})
	scene.SetOnParticleClick(func(p scenes.NebulaParticle) {
		log.Printf("[App] Clicked %s: %q", p.ID, p.Text)
		id := p.ID
		scene.HighlightParticle(&id)
	})

	sceneManager := game.NewSceneManager()
	sceneManager.SwitchTo(scene)

	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return &App{
		sceneManager: sceneManager,
		scene:        scene,
		settings:     settings,
		verbose:      cfg.Verbose,
		width:        config.GameWindowWidth,
		height:       config.GameWindowHeight,
	}, nil
}

// Update 更新查看器逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	a.handleKeys()
	a.handlePointer()

	deltaTime := 1.0 / 60.0
	a.sceneManager.Update(deltaTime)
	return nil
}

// handleKeys 键盘绑定
func (a *App) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF11):
		a.toggleFullscreen()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		a.launchDemo()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		a.scene.AnimateCamera(nil)
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		a.scene.ResetCamera(nil)
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		a.showcaseRandom()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		a.scene.ClearHighlight()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		a.copyHighlighted()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		a.scene.SetShowLabels(a.settings.ToggleLabels())
		a.saveSettings()
	}
}

// launchDemo 从底部输入框发射一条环境文本，镜头推进，飞行结束后返回
func (a *App) launchDemo() {
	text := config.AmbientText(a.spawnCount)
	palette := a.scene.Params().Palette
	colorHex := config.DefaultParticleColor
	if len(palette) > 0 {
		colorHex = palette[a.spawnCount%len(palette)]
	}
	a.spawnCount++

	rect := InputBoxRect(a.width, a.height)
	scene := a.scene
	if scene.Spawn(rect, colorHex, text, func() { scene.ResetCamera(nil) }) {
		scene.AnimateCamera(nil)
	}
}

// showcaseRandom 随机高亮一个粒子（轮播）
func (a *App) showcaseRandom() {
	p, ok := a.scene.GetRandomNebulaParticle()
	if !ok {
		return
	}
	id := p.ID
	a.scene.HighlightParticle(&id)
}

// copyHighlighted 把高亮粒子的文本复制到剪贴板
func (a *App) copyHighlighted() {
	p, ok := a.scene.HighlightedParticle()
	if !ok {
		return
	}
	if err := clipboard.WriteAll(p.Text); err != nil {
		log.Printf("[App] clipboard write failed: %v", err)
		return
	}
	log.Printf("[App] copied %q", p.Text)
}

// handlePointer 左键：小位移为点击，大位移为拖拽旋转
func (a *App) handlePointer() {
	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		a.pressed = true
		a.dragging = false
		a.pressX, a.pressY, a.lastX = x, y, x

	case a.pressed && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if !a.dragging && (abs(x-a.pressX) > clickSlop || abs(y-a.pressY) > clickSlop) {
			a.dragging = true
			a.scene.BeginDrag()
		}
		if a.dragging {
			a.scene.DragBy(float64(x - a.lastX))
		}
		a.lastX = x

	case a.pressed && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if a.dragging {
			a.scene.EndDrag()
		} else {
			a.scene.HandleClick(float64(x), float64(y))
		}
		a.pressed = false
		a.dragging = false
	}
}

func (a *App) toggleFullscreen() {
	if ebiten.IsFullscreen() {
		ebiten.SetFullscreen(false)
		if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
			ebiten.RestoreWindow()
		}
		a.pendingWindowSizeReset = true
		a.windowSizeResetCountdown = 3
		a.settings.SetFullscreen(false)
	} else {
		ebiten.SetFullscreen(true)
		a.settings.SetFullscreen(true)
	}
	a.saveSettings()
}

func (a *App) saveSettings() {
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
	drawInputBox(screen, InputBoxRect(a.width, a.height))
}

// drawInputBox 底部的演示输入框（发射起点）
func drawInputBox(screen *ebiten.Image, r vmath.Rect) {
	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 1.5,
		color.NRGBA{R: 140, G: 150, B: 255, A: 160}, true)
}

// InputBoxRect 输入框在屏幕上的矩形：底部居中
func InputBoxRect(width, height int) vmath.Rect {
	return vmath.Rect{
		X: (float64(width) - config.InputBoxWidth) / 2,
		Y: float64(height) - config.InputBoxMarginY - config.InputBoxHeight,
		W: config.InputBoxWidth,
		H: config.InputBoxHeight,
	}
}

// Layout 窗口尺寸即逻辑尺寸；尺寸变化同步转发给场景
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		a.width, a.height = outsideWidth, outsideHeight
		a.sceneManager.Resize(outsideWidth, outsideHeight)
	}
	return a.width, a.height
}

// Close 释放场景（窗口关闭时调用）
func (a *App) Close() {
	a.sceneManager.Dispose()
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
