package main

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

type fakeGame struct {
	closed int
}

func (g *fakeGame) Update() error              { return nil }
func (g *fakeGame) Draw(*ebiten.Image)         {}
func (g *fakeGame) Layout(w, h int) (int, int) { return w, h }
func (g *fakeGame) Close()                     { g.closed++ }

func TestRunClosesGameOnError(t *testing.T) {
	boom := errors.New("graphics driver lost")
	g := &fakeGame{}
	err := run(g, func(ebiten.Game) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("run() error = %v, want %v", err, boom)
	}
	if g.closed != 1 {
		t.Errorf("Close called %d times, want 1", g.closed)
	}
}

func TestRunClosesGameOnExit(t *testing.T) {
	g := &fakeGame{}
	var ran ebiten.Game
	if err := run(g, func(game ebiten.Game) error { ran = game; return nil }); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if ran != g {
		t.Error("run() should hand the game to the loop")
	}
	if g.closed != 1 {
		t.Errorf("Close called %d times, want 1", g.closed)
	}
}
