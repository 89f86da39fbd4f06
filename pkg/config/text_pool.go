package config

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// AmbientTexts 环境粒子的展示文本池
// 按粒子索引循环分配：text = AmbientTexts[index % len(AmbientTexts)]
var AmbientTexts = []string{
	"I wish I had said goodbye properly",
	"today the sea was exactly the colour of my mood",
	"learning to be patient with myself",
	"the bakery on the corner closed and nobody noticed",
	"still thinking about that song from the bus",
	"I forgive you, finally",
	"my grandmother's handwriting on the recipe card",
	"one more year, then I'll try again",
	"the city is quiet at 4am and I love it",
	"first snow, and I was the only one awake",
	"I'm proud of how far I've come",
	"we laughed until the train left without us",
	"someday I will learn the names of the stars",
	"thank you for staying on the phone",
	"it gets lighter, I promise",
	"I planted tomatoes and they actually grew",
	"the dog waits at the door every evening",
	"sorry I never wrote back",
	"the ocean doesn't care and that's comforting",
	"everything I needed was already here",
}

// AmbientText returns the pooled text assigned to an ambient point.
func AmbientText(index int) string {
	if len(AmbientTexts) == 0 {
		return ""
	}
	if index < 0 {
		index = -index
	}
	return AmbientTexts[index%len(AmbientTexts)]
}

// DefaultPalette 星云默认配色（偏冷的紫蓝色系）
var DefaultPalette = []string{
	"#6366f1", // indigo
	"#8b5cf6", // violet
	"#a78bfa",
	"#60a5fa", // sky
	"#38bdf8",
	"#f0abfc", // pink
	"#e0e7ff", // near white
}

// DefaultParticleColor 用户发射粒子的默认颜色
const DefaultParticleColor = "#6366f1"

// ParseHexColor 解析 "#rrggbb" 颜色
func ParseHexColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return c, nil
}

// MustParsePalette 把十六进制调色板转换为颜色列表，非法项被跳过
//
// 调色板为空时生成一组 HSV 渐变色兜底。
func MustParsePalette(hexes []string) []colorful.Color {
	colors := make([]colorful.Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			continue
		}
		colors = append(colors, c)
	}
	if len(colors) == 0 {
		for i := 0; i < 6; i++ {
			colors = append(colors, colorful.Hsv(230+float64(i)*15, 0.55, 0.95))
		}
	}
	return colors
}
