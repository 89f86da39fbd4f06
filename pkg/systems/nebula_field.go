package systems

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/vmath"
)

// ambientIDPrefix 环境粒子的 ID 前缀，后接缓冲索引
const ambientIDPrefix = "ambient-"

// ambientTimestampStep 环境粒子的合成时间戳间隔（毫秒）
const ambientTimestampStep = 60_000

// 自动旋转恢复弹簧：临界阻尼
const (
	spinAngularFrequency = 3.0
	spinDamping          = 1.0
)

// PickKind 拾取标记类型
type PickKind int

const (
	PickSettled PickKind = iota + 1
	PickAmbient
)

// PickTag 可拾取对象的标识：Settled(ID) 或 Ambient(Index)
type PickTag struct {
	Kind  PickKind
	ID    string
	Index int
}

// AmbientPoint 环境粒子缓冲中的一项
type AmbientPoint struct {
	Index     int
	Text      string
	Color     colorful.Color
	ColorHex  string
	Timestamp int64
	Position  vmath.Vec3 // 星云局部坐标，形态系统会改写
}

// NebulaParticle 对外暴露的粒子快照（环境或已落定）
type NebulaParticle struct {
	ID        string
	Text      string
	Color     string
	Timestamp int64
	Local     vmath.Vec3
	World     vmath.Vec3
	Ambient   bool
	Index     int          // 环境粒子的缓冲索引
	Entity    ecs.EntityID // 已落定粒子的实体
}

// NebulaField 拥有环境缓冲、已落定粒子列表和共享的旋转变换
type NebulaField struct {
	state  *game.SceneState
	shapes *ShapeGenerator

	Transform vmath.Transform

	ambient []AmbientPoint
	settled []ecs.EntityID
	picks   map[ecs.EntityID]PickTag
	byID    map[string]ecs.EntityID

	// 旋转：autoAngle 为自动旋转累计角，dragOffset 为手动拖拽偏移
	autoAngle  float64
	dragOffset float64
	dragging   bool
	cooldown   float64
	spin       float64 // 自动旋转速度倍率 0..1，由弹簧驱动
	spinVel    float64
	spring     harmonica.Spring
	springDT   float64 // spring 构建时使用的步长（秒）
}

// NewNebulaField 创建星云并生成环境缓冲（spiral 形态）
func NewNebulaField(state *game.SceneState, shapes *ShapeGenerator) *NebulaField {
	f := &NebulaField{
		state:     state,
		shapes:    shapes,
		Transform: vmath.IdentityTransform(),
		picks:     make(map[ecs.EntityID]PickTag),
		byID:      make(map[string]ecs.EntityID),
		spin:      1,
	}
	f.setSpringStep(harmonica.FPS(60))
	f.syncTransform()
	f.Regenerate(state.Params.AmbientCount)
	return f
}

// setSpringStep 按实际帧长重建弹簧系数；帧长不变时复用
func (f *NebulaField) setSpringStep(dt float64) {
	if dt <= 0 || dt == f.springDT {
		return
	}
	f.spring = harmonica.NewSpring(dt, spinAngularFrequency, spinDamping)
	f.springDT = dt
}

// Shapes returns the shape generator shared with the morph system.
func (f *NebulaField) Shapes() *ShapeGenerator { return f.shapes }

// Regenerate 按 count 重新生成环境缓冲
//
// 文本按索引循环取自固定文本池，颜色按索引循环取自调色板。
func (f *NebulaField) Regenerate(count int) {
	if count < 0 {
		count = 0
	}
	p := f.state.Params
	palette := config.MustParsePalette(p.Palette)
	now := f.state.NowMillis()

	if cap(f.ambient) >= count {
		f.ambient = f.ambient[:count]
	} else {
		f.ambient = make([]AmbientPoint, count)
	}
	for i := range f.ambient {
		c := palette[i%len(palette)]
		f.ambient[i] = AmbientPoint{
			Index:     i,
			Text:      config.AmbientText(i),
			Color:     c,
			ColorHex:  c.Hex(),
			Timestamp: now - int64(count-i)*ambientTimestampStep,
			Position:  f.shapes.Position(ShapeSpiral, i, count, p, 0, 0),
		}
	}
	log.Printf("[NebulaField] generated %d ambient points", count)
}

// Ambient 环境缓冲（调用方可以改写 Position）
func (f *NebulaField) Ambient() []AmbientPoint { return f.ambient }

// Settled 已落定粒子实体，按加入顺序
func (f *NebulaField) Settled() []ecs.EntityID { return f.settled }

// SettledCount returns the number of settled particles.
func (f *NebulaField) SettledCount() int { return len(f.settled) }

// Pick 返回实体的拾取标记
func (f *NebulaField) Pick(id ecs.EntityID) (PickTag, bool) {
	tag, ok := f.picks[id]
	return tag, ok
}

// RegisterSettled 把已有实体登记为已落定粒子
//
// 实体必须已经拥有 SettledComponent 和位于星云坐标系下的 TransformComponent。
func (f *NebulaField) RegisterSettled(entity ecs.EntityID) error {
	em := f.state.EntityManager
	settled, ok := ecs.GetComponent[*components.SettledComponent](em, entity)
	if !ok {
		return fmt.Errorf("entity %d has no SettledComponent", entity)
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](em, entity)
	if !ok || tr.Parent != components.ParentField {
		return fmt.Errorf("entity %d is not parented to the field", entity)
	}
	if _, dup := f.byID[settled.ID]; dup {
		return fmt.Errorf("settled particle %s already registered", settled.ID)
	}

	f.settled = append(f.settled, entity)
	f.picks[entity] = PickTag{Kind: PickSettled, ID: settled.ID}
	f.byID[settled.ID] = entity
	return nil
}

// AddSettled 创建一个已落定粒子（局部坐标）并登记
func (f *NebulaField) AddSettled(id, text, colorHex string, timestamp int64, local vmath.Vec3) (ecs.EntityID, error) {
	if _, dup := f.byID[id]; dup {
		return 0, fmt.Errorf("settled particle %s already registered", id)
	}
	c, err := config.ParseHexColor(colorHex)
	if err != nil {
		log.Printf("[NebulaField] %v, using default colour", err)
		colorHex = config.DefaultParticleColor
		c, _ = config.ParseHexColor(colorHex)
	}

	em := f.state.EntityManager
	entity := em.CreateEntity()
	ecs.AddComponent(em, entity, &components.TransformComponent{
		Position: local,
		Parent:   components.ParentField,
		Scale:    1,
		Opacity:  1,
	})
	ecs.AddComponent(em, entity, &components.SpriteComponent{
		Color:   c,
		Size:    f.state.Params.SettledSize,
		HasCore: true,
		Visible: true,
	})
	ecs.AddComponent(em, entity, &components.SettledComponent{
		ID:        id,
		Text:      text,
		ColorHex:  colorHex,
		Timestamp: timestamp,
	})
	if err := f.RegisterSettled(entity); err != nil {
		em.DestroyEntity(entity)
		return 0, err
	}
	return entity, nil
}

// Rehydrate 从持久化记录恢复已落定粒子，返回恢复的数量
func (f *NebulaField) Rehydrate(records []game.ParticleRecord) int {
	restored := 0
	for _, rec := range records {
		if _, err := f.AddSettled(rec.ID, rec.Text, rec.Color, rec.Timestamp, rec.Position.Vec3()); err != nil {
			log.Printf("[NebulaField] skip record %s: %v", rec.ID, err)
			continue
		}
		restored++
	}
	log.Printf("[NebulaField] rehydrated %d/%d settled particles", restored, len(records))
	return restored
}

// LocalToWorld 应用星云当前变换
func (f *NebulaField) LocalToWorld(local vmath.Vec3) vmath.Vec3 {
	return f.Transform.LocalToWorld(local)
}

// WorldToLocal 星云变换的逆
func (f *NebulaField) WorldToLocal(world vmath.Vec3) vmath.Vec3 {
	return f.Transform.WorldToLocal(world)
}

// RandomParticle 在环境和已落定两个集合上均匀随机取一个粒子
func (f *NebulaField) RandomParticle() (NebulaParticle, bool) {
	total := len(f.ambient) + len(f.settled)
	if total == 0 {
		return NebulaParticle{}, false
	}
	k := f.state.Rand.Intn(total)
	if k < len(f.ambient) {
		return f.ambientParticle(k), true
	}
	return f.settledParticle(f.settled[k-len(f.ambient)])
}

// LookupByID 按 ID 查找；环境粒子的 ID 为 "ambient-<index>"
func (f *NebulaField) LookupByID(id string) (NebulaParticle, bool) {
	if entity, ok := f.byID[id]; ok {
		return f.settledParticle(entity)
	}
	if idx, ok := parseAmbientID(id); ok && idx < len(f.ambient) {
		return f.ambientParticle(idx), true
	}
	return NebulaParticle{}, false
}

// Resolve 把拾取标记解析为粒子快照
func (f *NebulaField) Resolve(tag PickTag) (NebulaParticle, bool) {
	switch tag.Kind {
	case PickSettled:
		return f.LookupByID(tag.ID)
	case PickAmbient:
		if tag.Index >= 0 && tag.Index < len(f.ambient) {
			return f.ambientParticle(tag.Index), true
		}
	}
	return NebulaParticle{}, false
}

// AmbientID 环境粒子的 ID
func AmbientID(index int) string {
	return ambientIDPrefix + strconv.Itoa(index)
}

func parseAmbientID(id string) (int, bool) {
	if !strings.HasPrefix(id, ambientIDPrefix) {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(id, ambientIDPrefix))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func (f *NebulaField) ambientParticle(i int) NebulaParticle {
	pt := f.ambient[i]
	return NebulaParticle{
		ID:        AmbientID(i),
		Text:      pt.Text,
		Color:     pt.ColorHex,
		Timestamp: pt.Timestamp,
		Local:     pt.Position,
		World:     f.LocalToWorld(pt.Position),
		Ambient:   true,
		Index:     i,
	}
}

func (f *NebulaField) settledParticle(entity ecs.EntityID) (NebulaParticle, bool) {
	em := f.state.EntityManager
	settled, ok := ecs.GetComponent[*components.SettledComponent](em, entity)
	if !ok {
		return NebulaParticle{}, false
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](em, entity)
	if !ok {
		return NebulaParticle{}, false
	}
	return NebulaParticle{
		ID:        settled.ID,
		Text:      settled.Text,
		Color:     settled.ColorHex,
		Timestamp: settled.Timestamp,
		Local:     tr.Position,
		World:     f.LocalToWorld(tr.Position),
		Index:     -1,
		Entity:    entity,
	}, true
}

// BeginDrag 暂停自动旋转
func (f *NebulaField) BeginDrag() {
	f.dragging = true
	f.spin, f.spinVel = 0, 0
}

// DragBy 手动旋转（弧度），只在拖拽中生效
func (f *NebulaField) DragBy(radians float64) {
	if !f.dragging {
		return
	}
	f.dragOffset += radians
	f.syncTransform()
}

// EndDrag 结束拖拽；冷却结束后自动旋转由弹簧平滑恢复
func (f *NebulaField) EndDrag() {
	if !f.dragging {
		return
	}
	f.dragging = false
	f.cooldown = f.state.Params.DragCooldown
}

// Dragging reports whether the user is rotating the field.
func (f *NebulaField) Dragging() bool { return f.dragging }

// SpinFactor 当前自动旋转速度倍率（0..1）
func (f *NebulaField) SpinFactor() float64 { return f.spin }

// Update 推进旋转并同步变换
func (f *NebulaField) Update(dt float64) {
	switch {
	case f.dragging:
		f.spin, f.spinVel = 0, 0
	case f.cooldown > 0:
		f.cooldown -= dt
	case dt > 0:
		f.setSpringStep(dt)
		f.spin, f.spinVel = f.spring.Update(f.spin, f.spinVel, 1)
	}
	f.autoAngle += f.state.Params.AmbientRotationSpeed * f.spin * dt
	f.syncTransform()
}

func (f *NebulaField) syncTransform() {
	p := f.state.Params
	f.Transform.Position = p.FieldCenter
	f.Transform.Scale = p.AmbientScale
	if f.Transform.Scale <= 0 {
		f.Transform.Scale = 1
	}
	f.Transform.RotationY = f.autoAngle + f.dragOffset
}

// Dispose 销毁所有已落定粒子实体并清空缓冲
func (f *NebulaField) Dispose() {
	for _, entity := range f.settled {
		f.state.EntityManager.DestroyEntity(entity)
	}
	f.state.EntityManager.RemoveMarkedEntities()
	f.settled = nil
	f.ambient = nil
	f.picks = make(map[ecs.EntityID]PickTag)
	f.byID = make(map[string]ecs.EntityID)
}
