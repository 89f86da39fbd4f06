// nebula-headless 在模拟时间下运行星云引擎并打印报告
//
// 不打开窗口：所有粒子通过 Update(dt) 推进，适合调参和回归检查。
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/decker502/nebula/pkg/components"
	"github.com/decker502/nebula/pkg/config"
	"github.com/decker502/nebula/pkg/ecs"
	"github.com/decker502/nebula/pkg/game"
	"github.com/decker502/nebula/pkg/scenes"
	"github.com/decker502/nebula/pkg/systems"
	"github.com/decker502/nebula/pkg/vmath"
)

const tickRate = 60

type phaseEvent struct {
	tick int
	id   string
	from components.Phase
	to   components.Phase
}

type modeEvent struct {
	tick int
	from systems.ShapeMode
	to   systems.ShapeMode
}

type runReport struct {
	seed        int64
	ticks       int
	spawned     int
	completed   int
	settled     int
	persisted   int
	phases      []phaseEvent
	modes       []modeEvent
	maxTrail    int
	randomPicks map[bool]int // ambient? → count
}

func main() {
	var (
		spawns     int
		interval   float64
		seconds    float64
		seed       int64
		ambient    int
		paramsPath string
		verbose    bool
	)
	flag.IntVar(&spawns, "spawns", 5, "number of particles to launch")
	flag.Float64Var(&interval, "interval", 1.5, "seconds between launches")
	flag.Float64Var(&seconds, "seconds", 90, "simulated seconds")
	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.IntVar(&ambient, "ambient", 2000, "ambient point count")
	flag.StringVar(&paramsPath, "config", "", "animation params YAML")
	flag.BoolVar(&verbose, "verbose", false, "engine logs to stderr")
	flag.Parse()

	if !verbose {
		log.SetOutput(io.Discard)
	}
	if spawns < 0 || seconds <= 0 || interval < 0 {
		fmt.Println("error: -spawns must be >= 0, -seconds > 0, -interval >= 0")
		os.Exit(2)
	}

	params := config.DefaultAnimationParams()
	if paramsPath != "" {
		loaded, err := config.LoadAnimationParams(paramsPath)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		params = loaded
	}
	params.AmbientCount = ambient

	report, err := run(params, spawns, interval, seconds, seed)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	printReport(report, params)
}

func run(params *config.AnimationParams, spawns int, interval, seconds float64, seed int64) (*runReport, error) {
	store := game.NewMemoryRecordStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	scene, err := scenes.NewNebulaScene(scenes.Options{
		Params: params,
		Store:  store,
		Width:  config.GameWindowWidth,
		Height: config.GameWindowHeight,
		Seed:   seed,
		Now: func() time.Time {
			return start.Add(time.Duration(tick) * time.Second / tickRate)
		},
	})
	if err != nil {
		return nil, err
	}
	defer scene.Dispose()

	r := &runReport{seed: seed, randomPicks: map[bool]int{}}
	scene.Projectiles().SetPhaseListener(func(id string, from, to components.Phase) {
		r.phases = append(r.phases, phaseEvent{tick, id, from, to})
	})
	scene.Morph().OnModeChange = func(from, to systems.ShapeMode) {
		r.modes = append(r.modes, modeEvent{tick, from, to})
	}

	rect := vmath.Rect{
		X: (config.GameWindowWidth - config.InputBoxWidth) / 2,
		Y: config.GameWindowHeight - config.InputBoxMarginY - config.InputBoxHeight,
		W: config.InputBoxWidth,
		H: config.InputBoxHeight,
	}
	palette := params.Palette

	dt := 1.0 / tickRate
	total := int(seconds * tickRate)
	nextSpawn := 0.0
	for tick = 0; tick < total; tick++ {
		now := float64(tick) * dt
		if r.spawned < spawns && now >= nextSpawn {
			colorHex := config.DefaultParticleColor
			if len(palette) > 0 {
				colorHex = palette[r.spawned%len(palette)]
			}
			if scene.Spawn(rect, colorHex, config.AmbientText(r.spawned), func() { r.completed++ }) {
				r.spawned++
			}
			nextSpawn = now + interval
		}

		scene.Update(dt)

		for _, id := range scene.Projectiles().Active() {
			if trail, ok := ecs.GetComponent[*components.TrailComponent](scene.EntityManager(), id); ok && len(trail.Positions) > r.maxTrail {
				r.maxTrail = len(trail.Positions)
			}
		}
		if tick%tickRate == 0 {
			if p, ok := scene.GetRandomNebulaParticle(); ok {
				r.randomPicks[p.Ambient]++
			}
		}
	}
	r.ticks = total
	r.settled = scene.Field().SettledCount()
	r.persisted = store.Len()
	return r, nil
}

func printReport(r *runReport, params *config.AnimationParams) {
	fmt.Printf("=== Nebula Headless Report ===\n")
	fmt.Printf("seed=%d ticks=%d (%.1fs) ambient=%d curves=%d\n\n",
		r.seed, r.ticks, float64(r.ticks)/tickRate, params.AmbientCount, params.CurveCount())

	fmt.Printf("spawned=%d completed=%d settled=%d persisted=%d max_trail=%d/%d\n\n",
		r.spawned, r.completed, r.settled, r.persisted, r.maxTrail, params.TrailLength)

	byID := map[string][]phaseEvent{}
	var ids []string
	for _, e := range r.phases {
		if _, ok := byID[e.id]; !ok {
			ids = append(ids, e.id)
		}
		byID[e.id] = append(byID[e.id], e)
	}
	sort.Strings(ids)

	fmt.Printf("phase timeline (seconds since first event of each particle):\n")
	for _, id := range ids {
		events := byID[id]
		parts := make([]string, 0, len(events))
		for _, e := range events {
			parts = append(parts, fmt.Sprintf("%s@%.2f", e.to, float64(e.tick)/tickRate))
		}
		fmt.Printf("  %-24s %s\n", id, strings.Join(parts, " → "))
	}

	fmt.Printf("\nshape modes:\n")
	if len(r.modes) == 0 {
		fmt.Printf("  (no transitions completed)\n")
	}
	for _, m := range r.modes {
		fmt.Printf("  %6.2fs %s → %s\n", float64(m.tick)/tickRate, m.from, m.to)
	}

	fmt.Printf("\nrandom picks: ambient=%d settled=%d\n", r.randomPicks[true], r.randomPicks[false])
}
