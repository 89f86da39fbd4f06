package systems

import (
	"log"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/vmath"
)

// ShapeMode 环境星云的整体形态
type ShapeMode int

const (
	ShapeSpiral ShapeMode = iota
	ShapeRiver
	ShapeWave
)

func (m ShapeMode) String() string {
	switch m {
	case ShapeRiver:
		return "river"
	case ShapeWave:
		return "wave"
	default:
		return "ambient-spiral"
	}
}

// Next 轮换顺序：spiral → river → wave → spiral
func (m ShapeMode) Next() ShapeMode {
	return (m + 1) % 3
}

// spiralArms 螺旋臂数量
const spiralArms = 3

// ShapeGenerator 计算每个形态下第 i 个点的目标位置
//
// 结果只依赖 (i, n, 参数, 时间) 和构造时的噪声种子，因此同一个索引
// 在两次调用之间是稳定的。
type ShapeGenerator struct {
	noise *perlin.Perlin
}

// NewShapeGenerator 创建生成器，seed 决定噪声形态
func NewShapeGenerator(seed int64) *ShapeGenerator {
	return &ShapeGenerator{
		noise: perlin.NewPerlin(2, 2, 3, seed),
	}
}

// Position 计算目标位置（星云局部坐标）
//
// clock 为场景时间（秒，wave 使用），flow 为 river 沿长轴的推进量（0..1 循环）。
func (g *ShapeGenerator) Position(mode ShapeMode, i, n int, p *config.AnimationParams, clock, flow float64) vmath.Vec3 {
	switch mode {
	case ShapeRiver:
		return g.river(i, n, p.AmbientRadius, flow)
	case ShapeWave:
		return wave(i, n, p.AmbientRadius, p.WaveAmplitude, clock)
	default:
		return g.spiral(i, n, p.AmbientRadius)
	}
}

// Fill 为 dst 中的每个索引写入目标位置
func (g *ShapeGenerator) Fill(mode ShapeMode, dst []vmath.Vec3, p *config.AnimationParams, clock, flow float64) {
	n := len(dst)
	for i := range dst {
		dst[i] = g.Position(mode, i, n, p, clock, flow)
	}
}

// spiral 对数螺旋：半径按 t^0.6 分布（中心更密），角度随 ln(r) 增长
func (g *ShapeGenerator) spiral(i, n int, radius float64) vmath.Vec3 {
	t := (float64(i) + 0.5) / float64(maxInt(n, 1))
	h1, h2 := indexHash(i)
	r := radius * math.Pow(t, 0.6)
	arm := float64(i%spiralArms) * 2 * math.Pi / spiralArms
	angle := arm + 2.2*math.Log1p(r) + (h1-0.5)*0.6

	// 横向散布和纵向抖动都用噪声调制，形成团块而不是均匀的线
	scatter := 1 + 0.5*g.noise.Noise2D(float64(i)*0.013, 0.7)
	spread := (h2 - 0.5) * radius * 0.08 * scatter
	y := g.noise.Noise2D(float64(i)*0.021, 3.1)*radius*0.12*(1-t*0.5) + (h2-0.5)*0.8

	return vmath.V3(
		math.Cos(angle)*r+spread*math.Sin(angle),
		y,
		math.Sin(angle)*r-spread*math.Cos(angle),
	)
}

// river S 形曲线，宽度用噪声调制；flow 让所有点沿长轴循环推进
func (g *ShapeGenerator) river(i, n int, radius, flow float64) vmath.Vec3 {
	h1, h2 := indexHash(i)
	u := frac(float64(i)/float64(maxInt(n, 1)) + flow)
	x := (u - 0.5) * radius * 2.8
	z := math.Sin(u*2*math.Pi*1.5) * radius * 0.35
	y := math.Sin(u*2*math.Pi*0.75) * radius * 0.1

	width := radius * 0.12 * (1 + 0.6*g.noise.Noise1D(u*4))
	return vmath.V3(x, y+(h2-0.5)*width*0.4, z+(h1-0.5)*width)
}

// wave 规则网格，高度为三个错相正弦波之和
func wave(i, n int, radius, amplitude, clock float64) vmath.Vec3 {
	side := int(math.Ceil(math.Sqrt(float64(maxInt(n, 1)))))
	gx := i % side
	gz := i / side
	span := float64(maxInt(side-1, 1))
	x := (float64(gx)/span - 0.5) * 2 * radius
	z := (float64(gz)/span - 0.5) * 2 * radius
	return vmath.V3(x, WaveHeight(x, z, amplitude, clock), z)
}

// WaveHeight 三个正弦波叠加
func WaveHeight(x, z, amplitude, clock float64) float64 {
	return amplitude * (math.Sin(x*0.3+clock) +
		0.7*math.Sin(z*0.25+clock*1.3) +
		0.5*math.Sin((x+z)*0.15+clock*0.7))
}

// BlendPositions 线性混合：dst[i] = baseline[i]*(1-e) + target[i]*e
//
// e 为已缓动的进度；e >= 1 时直接复制 target，保证终点精确。
func BlendPositions(dst, baseline, target []vmath.Vec3, e float64) {
	if e >= 1 {
		copy(dst, target)
		return
	}
	for i := range dst {
		dst[i] = baseline[i].Lerp(target[i], e)
	}
}

// ShapeMorphSystem 驱动环境星云在三种形态之间循环
//
// 状态：停留 shapeDuration 秒 → 过渡 shapeTransitionDuration 秒 → 停留 ...
// 同一时间最多一个过渡；过渡结束时当前缓冲被快照为新的基线。
type ShapeMorphSystem struct {
	field     *NebulaField
	generator *ShapeGenerator

	current ShapeMode
	target  ShapeMode

	transitioning bool
	progress      float64 // 0..1，线性
	holdElapsed   float64 // 当前形态已停留的时间（秒）
	flow          float64 // river 推进量

	baseline []vmath.Vec3
	targets  []vmath.Vec3
	scratch  []vmath.Vec3

	// Ease 过渡使用的缓动函数
	Ease vmath.EaseFunc

	// OnModeChange 过渡完成时调用（可为 nil）
	OnModeChange func(from, to ShapeMode)
}

// NewShapeMorphSystem 创建形态系统；初始形态为 spiral（即星云生成时的形态）
func NewShapeMorphSystem(field *NebulaField) *ShapeMorphSystem {
	s := &ShapeMorphSystem{
		field:     field,
		generator: field.Shapes(),
		current:   ShapeSpiral,
		target:    ShapeSpiral,
		Ease:      vmath.EaseInOutCubic,
	}
	s.Rebase()
	return s
}

// Mode 当前（已稳定的）形态
func (s *ShapeMorphSystem) Mode() ShapeMode { return s.current }

// TargetMode 正在过渡到的形态；没有过渡时等于 Mode
func (s *ShapeMorphSystem) TargetMode() ShapeMode { return s.target }

// Transitioning reports whether a transition is in flight.
func (s *ShapeMorphSystem) Transitioning() bool { return s.transitioning }

// Progress 当前过渡的线性进度
func (s *ShapeMorphSystem) Progress() float64 { return s.progress }

// Rebase 把星云当前位置快照为基线（星云重新生成后调用）
func (s *ShapeMorphSystem) Rebase() {
	points := s.field.Ambient()
	s.baseline = resizeVecs(s.baseline, len(points))
	for i := range points {
		s.baseline[i] = points[i].Position
	}
	s.targets = resizeVecs(s.targets, len(points))
	s.scratch = resizeVecs(s.scratch, len(points))
}

// Reset 回到 spiral 形态并重新开始计时
func (s *ShapeMorphSystem) Reset() {
	s.current, s.target = ShapeSpiral, ShapeSpiral
	s.transitioning = false
	s.progress = 0
	s.holdElapsed = 0
	s.flow = 0
	s.Rebase()
}

// BeginTransition 立即开始过渡到 mode；已有过渡时忽略并返回 false
func (s *ShapeMorphSystem) BeginTransition(mode ShapeMode) bool {
	if s.transitioning || mode == s.current {
		return false
	}
	s.Rebase()
	s.target = mode
	s.transitioning = true
	s.progress = 0
	log.Printf("[ShapeMorphSystem] %s → %s", s.current, s.target)
	return true
}

// Update 推进计时、过渡和持续形态动画
func (s *ShapeMorphSystem) Update(dt float64) {
	p := s.field.state.Params
	points := s.field.Ambient()
	if len(points) != len(s.baseline) {
		// 星云被重新生成：丢弃进行中的过渡
		s.Reset()
		points = s.field.Ambient()
	}

	if s.transitioning {
		s.progress += dt / p.ShapeTransitionDuration
		if s.progress > 1 {
			s.progress = 1
		}
		s.generator.Fill(s.target, s.targets, p, s.field.state.Clock, s.flow)
		BlendPositions(s.scratch, s.baseline, s.targets, s.Ease(s.progress))
		for i := range points {
			points[i].Position = s.scratch[i]
		}
		if s.progress >= 1 {
			s.finishTransition()
		}
		return
	}

	s.holdElapsed += dt
	s.animateCurrent(dt, points)
	if s.holdElapsed >= p.ShapeDuration {
		s.BeginTransition(s.current.Next())
	}
}

func (s *ShapeMorphSystem) finishTransition() {
	from := s.current
	s.current = s.target
	s.transitioning = false
	s.progress = 0
	s.holdElapsed = 0
	s.Rebase()
	if s.OnModeChange != nil {
		s.OnModeChange(from, s.current)
	}
}

// animateCurrent 仅在稳定形态下运行：river 沿长轴流动，wave 每帧重算高度
func (s *ShapeMorphSystem) animateCurrent(dt float64, points []AmbientPoint) {
	p := s.field.state.Params
	switch s.current {
	case ShapeRiver:
		s.flow = frac(s.flow + p.RiverFlowSpeed*dt)
	case ShapeWave:
	default:
		return
	}
	n := len(points)
	for i := range points {
		points[i].Position = s.generator.Position(s.current, i, n, p, s.field.state.Clock, s.flow)
	}
}

func resizeVecs(v []vmath.Vec3, n int) []vmath.Vec3 {
	if cap(v) >= n {
		return v[:n]
	}
	return make([]vmath.Vec3, n)
}

// indexHash 由索引得到两个 [0,1) 的伪随机数（黄金分割序列）
func indexHash(i int) (float64, float64) {
	const phi = 0.6180339887498949
	return frac(float64(i)*phi + 0.1), frac(float64(i)*phi*phi*1.7 + 0.3)
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
