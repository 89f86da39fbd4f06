package systems

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/vmath"
)

const (
	// maxQuadsPerBatch uint16 索引上限：每个四边形 4 个顶点
	maxQuadsPerBatch = 16000

	minPointPixels = 1.0
	maxPointPixels = 48.0

	highlightRingPixels = 36.0
	labelOffsetX        = 28.0
	labelOffsetY        = -22.0
)

// additiveBlend 加法混合（发光效果）
var additiveBlend = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorOne,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// RenderSystem 把星云、飞行粒子、拖尾和高亮投影到屏幕
//
// 所有点精灵按贴图分批，用 DrawTriangles 一次提交；顶点数组在帧间复用。
type RenderSystem struct {
	state     *game.SceneState
	field     *NebulaField
	highlight *HighlightSystem
	resources *game.ResourceManager

	vertices []ebiten.Vertex
	indices  []uint16

	// ShowLabels 是否绘制高亮粒子的文字标签和连线
	ShowLabels bool
	// BrightnessScale 环境粒子亮度的额外倍率（查看器设置）
	BrightnessScale float64
}

// NewRenderSystem creates a renderer that draws through rm's textures.
func NewRenderSystem(state *game.SceneState, field *NebulaField, highlight *HighlightSystem, rm *game.ResourceManager) *RenderSystem {
	return &RenderSystem{
		state:           state,
		field:           field,
		highlight:       highlight,
		resources:       rm,
		vertices:        make([]ebiten.Vertex, 0, 4*4096),
		indices:         make([]uint16, 0, 6*4096),
		ShowLabels:      true,
		BrightnessScale: 1,
	}
}

// Draw renders one frame.
func (s *RenderSystem) Draw(screen *ebiten.Image) {
	s.drawAmbient(screen)
	s.drawTrails(screen)
	s.drawSprites(screen)
	s.drawHighlight(screen)
}

// drawAmbient 环境粒子：每个点一个发光四边形，超过批次上限时分批提交
func (s *RenderSystem) drawAmbient(screen *ebiten.Image) {
	tex := s.resources.Texture(game.TextureGlow)
	if tex == nil {
		return
	}
	p := s.state.Params
	cam := s.state.Camera
	brightness := p.AmbientBrightness * s.BrightnessScale

	s.reset()
	for _, pt := range s.field.Ambient() {
		world := s.field.LocalToWorld(pt.Position)
		sx, sy, depth, ok := cam.Project(world)
		if !ok {
			continue
		}
		size := PointPixels(p.AmbientPointSize*s.field.Transform.Scale, cam.PixelsPerUnit(depth))
		s.indices = AppendQuad(s.vertices, s.indices)
		s.vertices = appendQuadVertices(s.vertices, sx, sy, size, tex, scaleColor(pt.Color, brightness), float32(p.AmbientOpacity))
		if len(s.vertices) >= 4*maxQuadsPerBatch {
			s.flush(screen, tex)
		}
	}
	s.flush(screen, tex)
}

// drawSprites 飞行中粒子和已落定粒子
func (s *RenderSystem) drawSprites(screen *ebiten.Image) {
	em := s.state.EntityManager
	cam := s.state.Camera
	glow := s.resources.Texture(game.TextureGlow)
	core := s.resources.Texture(game.TextureCore)
	if glow == nil || core == nil {
		return
	}

	entities := ecs.GetEntitiesWith2[*components.TransformComponent, *components.SpriteComponent](em)

	type coreQuad struct {
		x, y, size float64
		alpha      float32
	}
	cores := make([]coreQuad, 0, len(entities))

	s.reset()
	for _, id := range entities {
		tr, _ := ecs.GetComponent[*components.TransformComponent](em, id)
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)
		if !sprite.Visible || tr.Opacity <= 0 {
			continue
		}
		world := tr.Position
		if tr.Parent == components.ParentField {
			world = s.field.LocalToWorld(tr.Position)
		}
		sx, sy, depth, ok := cam.Project(world)
		if !ok {
			continue
		}
		size := PointPixels(sprite.Size*tr.Scale, cam.PixelsPerUnit(depth))
		s.indices = AppendQuad(s.vertices, s.indices)
		s.vertices = appendQuadVertices(s.vertices, sx, sy, size, glow, sprite.Color, float32(tr.Opacity))
		if sprite.HasCore {
			cores = append(cores, coreQuad{sx, sy, size * 0.35, float32(tr.Opacity)})
		}
		if len(s.vertices) >= 4*maxQuadsPerBatch {
			s.flush(screen, glow)
		}
	}
	s.flush(screen, glow)

	white := colorful.Color{R: 1, G: 1, B: 1}
	for _, c := range cores {
		s.indices = AppendQuad(s.vertices, s.indices)
		s.vertices = appendQuadVertices(s.vertices, c.x, c.y, c.size, core, white, c.alpha)
		if len(s.vertices) >= 4*maxQuadsPerBatch {
			s.flush(screen, core)
		}
	}
	s.flush(screen, core)
}

// drawTrails 拖尾管道：逐个投影网格顶点，透明度从头到尾递减
func (s *RenderSystem) drawTrails(screen *ebiten.Image) {
	em := s.state.EntityManager
	cam := s.state.Camera
	white := s.resources.Texture(game.TextureWhite)
	if white == nil {
		return
	}
	src := white.Bounds()
	srcX := float32(src.Min.X) + 0.5
	srcY := float32(src.Min.Y) + 0.5
	opacity := s.state.Params.TrailOpacity

	for _, id := range ecs.GetEntitiesWith2[*components.TrailComponent, *components.SpriteComponent](em) {
		trail, _ := ecs.GetComponent[*components.TrailComponent](em, id)
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)
		mesh := &trail.Mesh
		if mesh.Empty() || mesh.RadialSegments == 0 {
			continue
		}

		s.reset()
		visible := true
		for i, v := range mesh.Vertices {
			sx, sy, _, ok := cam.Project(v)
			if !ok {
				visible = false
				break
			}
			ring := i / mesh.RadialSegments
			a := opacity * (1 - float64(ring)/float64(mesh.Rings))
			s.vertices = append(s.vertices, ebiten.Vertex{
				DstX: float32(sx), DstY: float32(sy),
				SrcX: srcX, SrcY: srcY,
				ColorR: float32(sprite.Color.R), ColorG: float32(sprite.Color.G), ColorB: float32(sprite.Color.B),
				ColorA: float32(a),
			})
		}
		if !visible {
			continue
		}
		s.indices = append(s.indices, mesh.Indices...)
		screen.DrawTriangles(s.vertices, s.indices, white, &ebiten.DrawTrianglesOptions{
			Blend:     additiveBlend,
			AntiAlias: true,
		})
	}
	s.reset()
}

// drawHighlight 高亮环、连线和文字标签
func (s *RenderSystem) drawHighlight(screen *ebiten.Image) {
	h := s.highlight
	if h == nil || !h.Visible {
		return
	}
	particle, ok := h.Particle()
	if !ok {
		return
	}
	sx, sy, _, visible := s.state.Camera.Project(particle.World)
	if !visible {
		return
	}

	ring := s.resources.Texture(game.TextureRing)
	if ring != nil {
		c, err := colorful.Hex(particle.Color)
		if err != nil {
			c = colorful.Color{R: 1, G: 1, B: 1}
		}
		s.reset()
		s.indices = AppendQuad(s.vertices, s.indices)
		s.vertices = appendQuadVertices(s.vertices, sx, sy, highlightRingPixels*h.Scale, ring, c, float32(h.Opacity))
		s.flush(screen, ring)
	}

	if !s.ShowLabels || particle.Text == "" {
		return
	}
	alpha := uint8(255 * vmath.Clamp01(h.Fade()))
	lx, ly := sx+labelOffsetX, sy+labelOffsetY
	lineColor := color.NRGBA{R: 200, G: 210, B: 255, A: alpha / 2}
	vector.StrokeLine(screen, float32(sx), float32(sy), float32(lx), float32(ly+8), 1, lineColor, true)

	op := &text.DrawOptions{}
	op.GeoM.Translate(lx+4, ly)
	op.ColorScale.ScaleWithColor(color.NRGBA{R: 235, G: 238, B: 255, A: alpha})
	text.Draw(screen, particle.Text, s.resources.LabelFace(), op)
}

func (s *RenderSystem) reset() {
	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
}

func (s *RenderSystem) flush(screen *ebiten.Image, tex *ebiten.Image) {
	if len(s.vertices) > 0 {
		screen.DrawTriangles(s.vertices, s.indices, tex, &ebiten.DrawTrianglesOptions{
			Blend:     additiveBlend,
			AntiAlias: true,
		})
	}
	s.reset()
}

// PointPixels 世界尺寸 → 屏幕像素，限制在 [1, 48]
func PointPixels(worldSize, pixelsPerUnit float64) float64 {
	return math.Max(minPointPixels, math.Min(maxPointPixels, worldSize*pixelsPerUnit))
}

// AppendQuad 追加下一个四边形的 6 个索引（两个三角形），基于当前顶点数
func AppendQuad(vertices []ebiten.Vertex, indices []uint16) []uint16 {
	base := uint16(len(vertices))
	return append(indices,
		base+0, base+1, base+2,
		base+1, base+3, base+2,
	)
}

// appendQuadVertices 以 (cx, cy) 为中心、边长 size 的贴图四边形
func appendQuadVertices(vs []ebiten.Vertex, cx, cy, size float64, tex *ebiten.Image, c colorful.Color, alpha float32) []ebiten.Vertex {
	b := tex.Bounds()
	x0, y0 := float32(b.Min.X), float32(b.Min.Y)
	x1, y1 := float32(b.Max.X), float32(b.Max.Y)
	half := float32(size / 2)
	fx, fy := float32(cx), float32(cy)
	r, g, bl := float32(c.R), float32(c.G), float32(c.B)
	return append(vs,
		ebiten.Vertex{DstX: fx - half, DstY: fy - half, SrcX: x0, SrcY: y0, ColorR: r, ColorG: g, ColorB: bl, ColorA: alpha},
		ebiten.Vertex{DstX: fx + half, DstY: fy - half, SrcX: x1, SrcY: y0, ColorR: r, ColorG: g, ColorB: bl, ColorA: alpha},
		ebiten.Vertex{DstX: fx - half, DstY: fy + half, SrcX: x0, SrcY: y1, ColorR: r, ColorG: g, ColorB: bl, ColorA: alpha},
		ebiten.Vertex{DstX: fx + half, DstY: fy + half, SrcX: x1, SrcY: y1, ColorR: r, ColorG: g, ColorB: bl, ColorA: alpha},
	)
}

// scaleColor 亮度倍率，结果限制在 [0, 1]
func scaleColor(c colorful.Color, k float64) colorful.Color {
	return colorful.Color{
		R: vmath.Clamp01(c.R * k),
		G: vmath.Clamp01(c.G * k),
		B: vmath.Clamp01(c.B * k),
	}
}
