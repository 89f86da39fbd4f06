package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"github.com/decker502/nebula/pkg/vmath"
)

// ErrInvalidParams 参数校验失败
var ErrInvalidParams = errors.New("invalid animation params")

// AnimationParams 动画参数快照
//
// 引擎每帧只读取，从不修改；外部通过 UpdateParams 整体替换。
//
// 单位约定（与外部调参面板保持一致）：
//   - pulseDuration / wanderDuration / settleDuration：毫秒
//   - flightDuration：秒
//   - 其余时长：秒
type AnimationParams struct {
	// Pulse 阶段（发射后原地脉动）
	PulseDuration  float64 `yaml:"pulseDuration"`  // 毫秒
	PulseFrequency float64 `yaml:"pulseFrequency"` // 脉动频率（Hz）
	PulseAmplitude float64 `yaml:"pulseAmplitude"` // 缩放振幅（相对 1.0）

	// Wander 阶段（漂移曲线）
	WanderDuration       float64    `yaml:"wanderDuration"`       // 毫秒
	WanderCurveCount     float64    `yaml:"wanderCurveCount"`     // 曲线段数，小数向下取整
	WanderRadius         float64    `yaml:"wanderRadius"`         // 相邻端点的最大偏移
	WanderSpeedVariation float64    `yaml:"wanderSpeedVariation"` // "alert" 速度档的额外随机量
	WanderCenterPull     float64    `yaml:"wanderCenterPull"`     // 最后 40% 段向星云中心的拉力（0..1）
	WanderBoundsMin      vmath.Vec3 `yaml:"wanderBoundsMin"`      // 屏幕可见范围（世界坐标）
	WanderBoundsMax      vmath.Vec3 `yaml:"wanderBoundsMax"`

	// Flight 阶段
	FlightDuration    float64 `yaml:"flightDuration"`    // 秒
	FlightCurvature   float64 `yaml:"flightCurvature"`   // 控制点偏移幅度
	FlightEndScale    float64 `yaml:"flightEndScale"`    // 到达时的缩放
	FieldTargetRadius float64 `yaml:"fieldTargetRadius"` // 落点在星云中心附近的随机半径

	// Settling 阶段
	SettleDuration       float64 `yaml:"settleDuration"`       // 毫秒
	SettleBlinkFrequency float64 `yaml:"settleBlinkFrequency"` // 闪烁频率（Hz）

	// 粒子外观
	ParticleSize float64 `yaml:"particleSize"`
	SettledSize  float64 `yaml:"settledSize"`

	// Trail 拖尾
	TrailLength         int     `yaml:"trailLength"` // 拖尾缓冲最大长度
	TrailOpacity        float64 `yaml:"trailOpacity"`
	TrailWidth          float64 `yaml:"trailWidth"`          // 头部半径
	TrailTailWidth      float64 `yaml:"trailTailWidth"`      // 尾部半径
	TrailRadialSegments int     `yaml:"trailRadialSegments"` // 管道截面分段数
	TrailSpeedReference float64 `yaml:"trailSpeedReference"` // 达到满长拖尾所需速度（单位/秒）

	// Ambient 星云
	AmbientCount         int     `yaml:"ambientCount"`
	AmbientRotationSpeed float64 `yaml:"ambientRotationSpeed"` // 弧度/秒
	AmbientScale         float64 `yaml:"ambientScale"`
	AmbientBrightness    float64 `yaml:"ambientBrightness"`
	AmbientOpacity       float64 `yaml:"ambientOpacity"`
	AmbientPointSize     float64 `yaml:"ambientPointSize"`
	AmbientRadius        float64 `yaml:"ambientRadius"` // 螺旋外半径

	// Shape morph
	ShapeDuration           float64 `yaml:"shapeDuration"`           // 秒
	ShapeTransitionDuration float64 `yaml:"shapeTransitionDuration"` // 秒
	RiverFlowSpeed          float64 `yaml:"riverFlowSpeed"`          // 每秒沿长轴推进的参数量
	WaveAmplitude           float64 `yaml:"waveAmplitude"`

	// 交互
	ClickRadius             float64 `yaml:"clickRadius"`
	AmbientPickThreshold    float64 `yaml:"ambientPickThreshold"`
	DragCooldown            float64 `yaml:"dragCooldown"`      // 秒
	HighlightFadeRate       float64 `yaml:"highlightFadeRate"` // 每秒
	HighlightPulseFrequency float64 `yaml:"highlightPulseFrequency"`

	// 镜头
	CameraRestPosition   vmath.Vec3 `yaml:"cameraRestPosition"`
	CameraTargetPosition vmath.Vec3 `yaml:"cameraTargetPosition"`
	CameraPanDuration    float64    `yaml:"cameraPanDuration"` // 秒
	CameraFov            float64    `yaml:"cameraFov"`
	LaunchDistance       float64    `yaml:"launchDistance"` // 发射点距静止镜头的距离，落在 wander 深度范围内
	FieldCenter          vmath.Vec3 `yaml:"fieldCenter"`

	// Palette 星云颜色（十六进制）
	Palette []string `yaml:"palette"`
}

// DefaultAnimationParams 返回默认参数
func DefaultAnimationParams() *AnimationParams {
	return &AnimationParams{
		PulseDuration:  1200,
		PulseFrequency: 2.5,
		PulseAmplitude: 0.25,

		WanderDuration:       6000,
		WanderCurveCount:     4,
		WanderRadius:         9,
		WanderSpeedVariation: 0.3,
		WanderCenterPull:     0.6,
		WanderBoundsMin:      vmath.V3(-22, -12, -8),
		WanderBoundsMax:      vmath.V3(22, 12, 8),

		FlightDuration:    2.5,
		FlightCurvature:   10,
		FlightEndScale:    0.35,
		FieldTargetRadius: 6,

		SettleDuration:       1500,
		SettleBlinkFrequency: 4,

		ParticleSize: 0.9,
		SettledSize:  0.45,

		TrailLength:         40,
		TrailOpacity:        0.6,
		TrailWidth:          0.35,
		TrailTailWidth:      0.02,
		TrailRadialSegments: 6,
		TrailSpeedReference: 12,

		AmbientCount:         12000,
		AmbientRotationSpeed: 0.05,
		AmbientScale:         1.0,
		AmbientBrightness:    1.0,
		AmbientOpacity:       0.8,
		AmbientPointSize:     0.25,
		AmbientRadius:        30,

		ShapeDuration:           25,
		ShapeTransitionDuration: 4,
		RiverFlowSpeed:          0.02,
		WaveAmplitude:           2,

		ClickRadius:             2.5,
		AmbientPickThreshold:    0.6,
		DragCooldown:            2,
		HighlightFadeRate:       2.5,
		HighlightPulseFrequency: 1.5,

		CameraRestPosition:   vmath.V3(0, 4, 60),
		CameraTargetPosition: vmath.V3(0, 2, 28),
		CameraPanDuration:    1.8,
		CameraFov:            55,
		LaunchDistance:       60,
		FieldCenter:          vmath.V3(0, 0, 0),

		Palette: append([]string(nil), DefaultPalette...),
	}
}

// LoadAnimationParams 从 YAML 文件加载参数
//
// 文件中缺省的字段保留默认值。
func LoadAnimationParams(path string) (*AnimationParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read animation params %s: %w", path, err)
	}
	return ParseAnimationParams(data)
}

// ParseAnimationParams 解析 YAML 数据（在默认值之上覆盖）
func ParseAnimationParams(data []byte) (*AnimationParams, error) {
	params := DefaultAnimationParams()
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("failed to parse animation params YAML: %w", err)
	}
	if len(params.Palette) == 0 {
		params.Palette = append([]string(nil), DefaultPalette...)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate 检查参数是否可用
func (p *AnimationParams) Validate() error {
	positive := map[string]float64{
		"pulseDuration":           p.PulseDuration,
		"wanderDuration":          p.WanderDuration,
		"flightDuration":          p.FlightDuration,
		"settleDuration":          p.SettleDuration,
		"shapeDuration":           p.ShapeDuration,
		"shapeTransitionDuration": p.ShapeTransitionDuration,
		"cameraPanDuration":       p.CameraPanDuration,
		"cameraFov":               p.CameraFov,
		"launchDistance":          p.LaunchDistance,
		"clickRadius":             p.ClickRadius,
	}
	for name, v := range positive {
		if !(v > 0) {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidParams, name, v)
		}
	}
	if p.WanderCurveCount < 1 {
		return fmt.Errorf("%w: wanderCurveCount must be >= 1, got %v", ErrInvalidParams, p.WanderCurveCount)
	}
	if p.TrailLength < 2 {
		return fmt.Errorf("%w: trailLength must be >= 2, got %d", ErrInvalidParams, p.TrailLength)
	}
	if p.TrailRadialSegments < 3 {
		return fmt.Errorf("%w: trailRadialSegments must be >= 3, got %d", ErrInvalidParams, p.TrailRadialSegments)
	}
	if p.AmbientCount < 0 {
		return fmt.Errorf("%w: ambientCount must be >= 0, got %d", ErrInvalidParams, p.AmbientCount)
	}
	lo, hi := p.WanderBoundsMin, p.WanderBoundsMax
	if lo.X >= hi.X || lo.Y >= hi.Y || lo.Z >= hi.Z {
		return fmt.Errorf("%w: wanderBoundsMin must be below wanderBoundsMax", ErrInvalidParams)
	}
	return nil
}

// CurveCount 漂移曲线段数
//
// 小数部分直接舍弃（4.9 → 4），不做相邻整数之间的平滑。
func (p *AnimationParams) CurveCount() int {
	n := int(math.Floor(p.WanderCurveCount))
	if n < 1 {
		return 1
	}
	return n
}

// WanderBounds 漂移范围包围盒
func (p *AnimationParams) WanderBounds() vmath.Box3 {
	return vmath.Box3{Min: p.WanderBoundsMin, Max: p.WanderBoundsMax}
}

// PulseSeconds / WanderSeconds / SettleSeconds 把毫秒字段换算为秒
func (p *AnimationParams) PulseSeconds() float64  { return p.PulseDuration / 1000 }
func (p *AnimationParams) WanderSeconds() float64 { return p.WanderDuration / 1000 }
func (p *AnimationParams) SettleSeconds() float64 { return p.SettleDuration / 1000 }

// Clone 深拷贝（Palette 切片不共享）
func (p *AnimationParams) Clone() *AnimationParams {
	dst := &AnimationParams{}
	if err := copier.CopyWithOption(dst, p, copier.Option{DeepCopy: true}); err != nil {
		log.Printf("[AnimationParams] deep copy failed, falling back to shallow copy: %v", err)
		*dst = *p
		dst.Palette = append([]string(nil), p.Palette...)
	}
	return dst
}
