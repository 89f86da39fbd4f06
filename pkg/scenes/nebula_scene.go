package scenes

import (
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/systems"
	"github.com/decker502/nebula/pkg/vmath"
)

// dragRadiansPerPixel 拖拽时每像素对应的旋转角
const dragRadiansPerPixel = 0.005

var backgroundColor = color.RGBA{R: 5, G: 6, B: 18, A: 255}

// Options NebulaScene 的构造参数
type Options struct {
	// Params 动画参数，nil 时使用默认值；场景内部保存深拷贝
	Params *config.AnimationParams
	// Store 已落定粒子的外部存储，nil 时使用内存存储
	Store game.RecordStore
	// Width / Height 初始视口尺寸；为 0 时场景在第一次 Resize 之前处于未就绪状态
	Width, Height int
	// Seed 随机种子，0 表示使用当前时间
	Seed int64
	// Now 墙钟，nil 时使用 time.Now
	Now func() time.Time
}

// NebulaScene 星云引擎：把所有系统按固定顺序串在一个 Update(dt) 里
//
// 每帧顺序：时钟 → 飞行粒子 → 星云旋转 → 形态 → 高亮 → 镜头。
// 指针事件在两帧之间处理，总是看到完整的一帧状态。
type NebulaScene struct {
	state     *game.SceneState
	resources *game.ResourceManager
	store     game.RecordStore

	field       *systems.NebulaField
	projectiles *systems.ProjectileSystem
	morph       *systems.ShapeMorphSystem
	hitTest     *systems.HitTestSystem
	highlight   *systems.HighlightSystem
	camera      *systems.CameraSystem
	render      *systems.RenderSystem

	onParticleClick func(NebulaParticle)
	onReady         func()
	readyFired      bool
	surfaceReady    bool
	disposed        bool
}

// NewNebulaScene 创建场景、生成环境星云，并从存储恢复已落定粒子
func NewNebulaScene(opts Options) (*NebulaScene, error) {
	params := opts.Params
	if params == nil {
		params = config.DefaultAnimationParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create nebula scene: %w", err)
	}

	state := game.NewSceneState(params.Clone(), opts.Width, opts.Height, opts.Seed)
	if opts.Now != nil {
		state.Now = opts.Now
	}

	store := opts.Store
	if store == nil {
		store = game.NewMemoryRecordStore()
	}

	s := &NebulaScene{
		state:        state,
		resources:    game.NewResourceManager(),
		store:        store,
		surfaceReady: opts.Width > 0 && opts.Height > 0,
	}

	shapes := systems.NewShapeGenerator(state.Rand.Int63())
	s.field = systems.NewNebulaField(state, shapes)
	s.rehydrate()

	s.projectiles = systems.NewProjectileSystem(state, s.field)
	s.projectiles.SetSettleHandler(s.persistSettled)
	s.morph = systems.NewShapeMorphSystem(s.field)
	s.hitTest = systems.NewHitTestSystem(state, s.field)
	s.highlight = systems.NewHighlightSystem(state, s.field)
	s.camera = systems.NewCameraSystem(state)
	s.render = systems.NewRenderSystem(state, s.field, s.highlight, s.resources)

	log.Printf("[NebulaScene] created: %d ambient, %d settled", len(s.field.Ambient()), s.field.SettledCount())
	return s, nil
}

// rehydrate 读取失败按空列表处理
func (s *NebulaScene) rehydrate() {
	records, err := s.store.LoadRecords()
	if err != nil {
		log.Printf("[NebulaScene] failed to load settled records: %v (starting empty)", err)
		return
	}
	s.field.Rehydrate(records)
}

// persistSettled 终态回调：追加记录，失败只记日志
func (s *NebulaScene) persistSettled(_ ecs.EntityID, settled *components.SettledComponent, local vmath.Vec3) {
	rec := game.ParticleRecord{
		ID:        settled.ID,
		Text:      settled.Text,
		Color:     settled.ColorHex,
		Timestamp: settled.Timestamp,
		Position:  game.PositionOf(local),
	}
	if _, err := game.AppendRecord(s.store, rec, config.SettledArchiveLimit); err != nil {
		log.Printf("[NebulaScene] failed to persist %s: %v", rec.ID, err)
	}
}

// ready 场景已初始化且有可用的视口
func (s *NebulaScene) ready() bool {
	return !s.disposed && s.surfaceReady
}

// Spawn 从屏幕矩形发射一个粒子；未就绪时静默返回 false
func (s *NebulaScene) Spawn(rect vmath.Rect, colorHex, text string, onComplete func()) bool {
	if !s.ready() {
		return false
	}
	_, ok := s.projectiles.Spawn(rect, colorHex, text, onComplete)
	return ok
}

// UpdateParams 整体替换参数快照
//
// 静止位置变化立即生效；环境粒子数量变化时重新生成星云。非法参数被拒绝，旧参数保持不变。
func (s *NebulaScene) UpdateParams(p *config.AnimationParams) error {
	if s.disposed || p == nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("failed to update params: %w", err)
	}
	prev := s.state.Params
	next := p.Clone()
	s.state.Params = next

	if next.CameraRestPosition != prev.CameraRestPosition {
		s.camera.ApplyRestPosition(next.CameraRestPosition)
	}
	if next.AmbientCount != prev.AmbientCount || next.AmbientRadius != prev.AmbientRadius {
		s.field.Regenerate(next.AmbientCount)
		s.morph.Reset()
	}
	return nil
}

// Params 当前参数快照（只读）
func (s *NebulaScene) Params() *config.AnimationParams { return s.state.Params }

// AnimateCamera 推进镜头
func (s *NebulaScene) AnimateCamera(onComplete func()) bool {
	if !s.ready() {
		return false
	}
	s.camera.Advance(onComplete)
	return true
}

// ResetCamera 镜头返回静止位置
func (s *NebulaScene) ResetCamera(onComplete func()) bool {
	if !s.ready() {
		return false
	}
	s.camera.Return(onComplete)
	return true
}

// HighlightParticle 高亮指定粒子；id 为 nil 时淡出
func (s *NebulaScene) HighlightParticle(id *string) bool {
	if s.disposed {
		return false
	}
	return s.highlight.Highlight(id)
}

// ClearHighlight 等价于 HighlightParticle(nil)
func (s *NebulaScene) ClearHighlight() {
	s.HighlightParticle(nil)
}

// HighlightFade 当前高亮淡入系数
func (s *NebulaScene) HighlightFade() float64 { return s.highlight.Fade() }

// HighlightVisible reports whether the highlight sprite is drawn this frame.
func (s *NebulaScene) HighlightVisible() bool { return s.highlight.Visible }

// HighlightedParticle 当前高亮的粒子
func (s *NebulaScene) HighlightedParticle() (NebulaParticle, bool) {
	if !s.highlight.Active() {
		return NebulaParticle{}, false
	}
	return s.highlight.Particle()
}

// GetRandomNebulaParticle 在环境和已落定粒子中均匀随机取一个
func (s *NebulaScene) GetRandomNebulaParticle() (NebulaParticle, bool) {
	if s.disposed {
		return NebulaParticle{}, false
	}
	return s.field.RandomParticle()
}

// GetHighlightedParticleScreenPosition 高亮粒子本帧的屏幕坐标
func (s *NebulaScene) GetHighlightedParticleScreenPosition() (x, y float64, ok bool) {
	if s.disposed {
		return 0, 0, false
	}
	return s.highlight.ScreenPosition()
}

// LookupParticle 按 ID 查找粒子
func (s *NebulaScene) LookupParticle(id string) (NebulaParticle, bool) {
	return s.field.LookupByID(id)
}

// SetOnParticleClick 设置点击命中回调
func (s *NebulaScene) SetOnParticleClick(cb func(NebulaParticle)) { s.onParticleClick = cb }

// SetOnReady 设置就绪回调；只会触发一次
func (s *NebulaScene) SetOnReady(cb func()) {
	s.onReady = cb
	s.fireReady()
}

func (s *NebulaScene) fireReady() {
	if s.readyFired || s.onReady == nil || !s.ready() {
		return
	}
	s.readyFired = true
	s.onReady()
}

// HandleClick 指针点击：命中时触发 onParticleClick；无命中不是错误
func (s *NebulaScene) HandleClick(x, y float64) (NebulaParticle, bool) {
	if !s.ready() {
		return NebulaParticle{}, false
	}
	p, ok := s.hitTest.PickScreen(x, y)
	if !ok {
		return NebulaParticle{}, false
	}
	if s.onParticleClick != nil {
		s.onParticleClick(p)
	}
	return p, true
}

// BeginDrag 开始拖拽旋转，暂停自动旋转
func (s *NebulaScene) BeginDrag() {
	if !s.disposed {
		s.field.BeginDrag()
	}
}

// DragBy 拖拽了 dx 像素
func (s *NebulaScene) DragBy(dx float64) {
	if !s.disposed {
		s.field.DragBy(dx * dragRadiansPerPixel)
	}
}

// EndDrag 结束拖拽，冷却后恢复自动旋转
func (s *NebulaScene) EndDrag() {
	if !s.disposed {
		s.field.EndDrag()
	}
}

// Resize 同步更新视口和投影
func (s *NebulaScene) Resize(width, height int) {
	if s.disposed || width <= 0 || height <= 0 {
		return
	}
	s.state.Camera.SetViewport(float64(width), float64(height))
	s.surfaceReady = true
	s.fireReady()
}

// SetShowLabels 是否绘制高亮标签
func (s *NebulaScene) SetShowLabels(show bool) { s.render.ShowLabels = show }

// SetBrightnessScale 环境粒子额外亮度倍率
func (s *NebulaScene) SetBrightnessScale(k float64) { s.render.BrightnessScale = k }

// Update 推进一帧（dt 为秒）
func (s *NebulaScene) Update(dt float64) {
	if s.disposed {
		return
	}
	s.fireReady()

	s.state.Clock += dt
	s.projectiles.Update(dt)
	s.field.Update(dt)
	s.morph.Update(dt)
	s.highlight.Update(dt)
	s.camera.Update(dt)

	s.state.EntityManager.RemoveMarkedEntities()
}

// Draw 绘制一帧
func (s *NebulaScene) Draw(screen *ebiten.Image) {
	if s.disposed {
		return
	}
	screen.Fill(backgroundColor)
	s.render.Draw(screen)
}

// Dispose 释放所有粒子、贴图和回调；重复调用安全
func (s *NebulaScene) Dispose() {
	if s.disposed {
		return
	}
	s.projectiles.Dispose()
	s.field.Dispose()
	s.highlight.Reset()
	s.camera.Dispose()
	s.resources.Dispose()
	s.state.EntityManager.Clear()

	s.onParticleClick = nil
	s.onReady = nil
	s.disposed = true
	log.Printf("[NebulaScene] disposed")
}

// Disposed reports whether Dispose has been called.
func (s *NebulaScene) Disposed() bool { return s.disposed }

// 以下访问器供查看器、无头报告和测试使用

// Camera 返回场景镜头
func (s *NebulaScene) Camera() *vmath.Camera { return s.state.Camera }

// CameraAnimating reports whether a camera transition is running.
func (s *NebulaScene) CameraAnimating() bool { return s.camera.IsAnimating() }

// Field 返回星云
func (s *NebulaScene) Field() *systems.NebulaField { return s.field }

// Projectiles 返回生命周期系统
func (s *NebulaScene) Projectiles() *systems.ProjectileSystem { return s.projectiles }

// Morph 返回形态系统
func (s *NebulaScene) Morph() *systems.ShapeMorphSystem { return s.morph }

// EntityManager 返回实体管理器
func (s *NebulaScene) EntityManager() *ecs.EntityManager { return s.state.EntityManager }

// Clock 场景时间（秒）
func (s *NebulaScene) Clock() float64 { return s.state.Clock }
