package systems

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lucasb-eyer/go-colorful"
)

func TestAppendQuad(t *testing.T) {
	vertices := make([]ebiten.Vertex, 4)
	indices := AppendQuad(vertices, nil)
	want := []uint16{4, 5, 6, 5, 7, 6}
	if len(indices) != len(want) {
		t.Fatalf("indices = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("indices[%d] = %d, want %d", i, indices[i], want[i])
		}
	}
}

func TestPointPixels(t *testing.T) {
	tests := []struct {
		size, ppu float64
		want      float64
	}{
		{0.5, 10, 5},
		{0.001, 10, minPointPixels},
		{10, 100, maxPointPixels},
	}
	for _, tt := range tests {
		if got := PointPixels(tt.size, tt.ppu); got != tt.want {
			t.Errorf("PointPixels(%v, %v) = %v, want %v", tt.size, tt.ppu, got, tt.want)
		}
	}
}

func TestScaleColorClamps(t *testing.T) {
	c := scaleColor(colorful.Color{R: 0.8, G: 0.4, B: 0}, 2)
	if c.R != 1 || c.G != 0.8 || c.B != 0 {
		t.Errorf("scaleColor() = %+v", c)
	}
}
