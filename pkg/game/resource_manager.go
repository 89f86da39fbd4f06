package game

import (
	"image"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// TextureID 程序化生成的贴图
type TextureID int

const (
	// TextureGlow 柔和的光晕圆点（环境粒子、落定粒子）
	TextureGlow TextureID = iota
	// TextureCore 边缘更硬的小核心
	TextureCore
	// TextureRing 高亮环
	TextureRing
	// TextureWhite 纯白像素（拖尾三角形使用）
	TextureWhite
)

const textureSize = 64

// ResourceManager owns every GPU resource one NebulaScene creates.
//
// 贴图与字体都是惰性创建的，归属于单个场景实例，Dispose 时统一释放，
// 因此测试中可以同时存在多个场景而互不干扰。
//
// Thread Safety Note: not thread-safe; only the frame loop touches it.
type ResourceManager struct {
	textures map[TextureID]*ebiten.Image
	white    *ebiten.Image // TextureWhite 的父图，SubImage 不能单独释放
	label    *text.GoXFace
	disposed bool
}

// NewResourceManager creates an empty cache. Nothing is allocated until first use.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		textures: make(map[TextureID]*ebiten.Image),
	}
}

// Texture returns the texture for id, generating it on first use.
// Returns nil after Dispose.
func (rm *ResourceManager) Texture(id TextureID) *ebiten.Image {
	if rm.disposed {
		return nil
	}
	if img, ok := rm.textures[id]; ok {
		return img
	}

	var img *ebiten.Image
	switch id {
	case TextureGlow:
		img = newRadialTexture(func(r float64) float64 {
			// 高斯衰减
			return math.Exp(-r * r * 4.5)
		})
	case TextureCore:
		img = newRadialTexture(func(r float64) float64 {
			if r > 1 {
				return 0
			}
			return math.Pow(1-r, 0.6)
		})
	case TextureRing:
		img = newRadialTexture(func(r float64) float64 {
			d := math.Abs(r - 0.8)
			return math.Max(0, 1-d*10)
		})
	case TextureWhite:
		rm.white = ebiten.NewImage(3, 3)
		rm.white.Fill(image.White)
		img = rm.white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	default:
		log.Printf("[ResourceManager] unknown texture id %d", id)
		return nil
	}

	rm.textures[id] = img
	return img
}

// LabelFace 返回标签字体（basicfont 7x13）
func (rm *ResourceManager) LabelFace() *text.GoXFace {
	if rm.label == nil {
		rm.label = text.NewGoXFace(basicfont.Face7x13)
	}
	return rm.label
}

// TextureCount returns how many textures are currently allocated.
func (rm *ResourceManager) TextureCount() int {
	return len(rm.textures)
}

// Dispose 释放所有贴图；之后 Texture 返回 nil
func (rm *ResourceManager) Dispose() {
	for id, img := range rm.textures {
		if id == TextureWhite {
			continue
		}
		img.Deallocate()
	}
	if rm.white != nil {
		rm.white.Deallocate()
		rm.white = nil
	}
	rm.textures = make(map[TextureID]*ebiten.Image)
	rm.label = nil
	rm.disposed = true
}

// newRadialTexture 生成以中心为原点的径向贴图，falloff 输入归一化半径 r ∈ [0, √2]
func newRadialTexture(falloff func(r float64) float64) *ebiten.Image {
	pix := make([]byte, textureSize*textureSize*4)
	half := float64(textureSize) / 2
	for y := 0; y < textureSize; y++ {
		for x := 0; x < textureSize; x++ {
			dx := (float64(x) + 0.5 - half) / half
			dy := (float64(y) + 0.5 - half) / half
			a := falloff(math.Sqrt(dx*dx + dy*dy))
			if a < 0 {
				a = 0
			} else if a > 1 {
				a = 1
			}
			// 预乘 alpha 的白色
			v := byte(a * 255)
			i := (y*textureSize + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, v
		}
	}
	img := ebiten.NewImage(textureSize, textureSize)
	img.WritePixels(pix)
	return img
}
