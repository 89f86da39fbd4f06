package scenes

import (
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/systems"
)

// Scene is a type alias for game.Scene.
type Scene = game.Scene

// NebulaParticle is the particle snapshot handed to callers.
type NebulaParticle = systems.NebulaParticle

var (
	_ game.Scene      = (*NebulaScene)(nil)
	_ game.Resizable  = (*NebulaScene)(nil)
	_ game.Disposable = (*NebulaScene)(nil)
)
