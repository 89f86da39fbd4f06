package game

import "testing"

func TestResourceManagerLazyTextures(t *testing.T) {
	rm := NewResourceManager()
	if rm.TextureCount() != 0 {
		t.Fatalf("new manager holds %d textures", rm.TextureCount())
	}

	glow := rm.Texture(TextureGlow)
	if glow == nil {
		t.Fatal("Texture(TextureGlow) = nil")
	}
	if w, h := glow.Bounds().Dx(), glow.Bounds().Dy(); w != textureSize || h != textureSize {
		t.Errorf("glow size = %dx%d, want %d", w, h, textureSize)
	}
	if rm.Texture(TextureGlow) != glow {
		t.Error("second call should return the cached texture")
	}

	white := rm.Texture(TextureWhite)
	if b := white.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("white texture bounds = %v, want 1x1", b)
	}
	if rm.TextureCount() != 2 {
		t.Errorf("TextureCount() = %d, want 2", rm.TextureCount())
	}
	if rm.Texture(TextureID(99)) != nil {
		t.Error("unknown texture id should return nil")
	}
}

func TestResourceManagerDispose(t *testing.T) {
	rm := NewResourceManager()
	rm.Texture(TextureCore)
	rm.Texture(TextureWhite)
	rm.LabelFace()

	rm.Dispose()
	if rm.TextureCount() != 0 {
		t.Errorf("TextureCount() after Dispose = %d", rm.TextureCount())
	}
	if rm.Texture(TextureRing) != nil {
		t.Error("Texture() after Dispose should return nil")
	}
}
