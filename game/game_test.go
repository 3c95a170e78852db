package game

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/components"
	"github.com/pthm-cable/orbitfall/config"
	"github.com/pthm-cable/orbitfall/physics"
	"github.com/pthm-cable/orbitfall/telemetry"
)

// flatConfig loads a single featureless planet with one tank per player.
func flatConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
planet:
  mountains: 0
  roughness: 0
  deposits: 0
planets:
  - x: 0
    y: 0
    tanks:
      - { player: 0, longitude: 90 }
      - { player: 1, longitude: 100, platform: true }
` + extra
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	g, err := NewGame(cfg, opts)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

// unitsByPlayer returns the first live unit entity of each player.
func unitsByPlayer(g *Game) map[int]ecs.Entity {
	out := make(map[int]ecs.Entity)
	query := g.unitFilter.Query()
	for query.Next() {
		_, unit := query.Get()
		if _, ok := out[unit.Player]; !ok {
			out[unit.Player] = query.Entity()
		}
	}
	return out
}

func onlyShell(t *testing.T, g *Game) ecs.Entity {
	t.Helper()
	var shells []ecs.Entity
	query := g.shellFilter.Query()
	for query.Next() {
		_, shell := query.Get()
		if !shell.Spent {
			shells = append(shells, query.Entity())
		}
	}
	if len(shells) != 1 {
		t.Fatalf("live shells = %d, want 1", len(shells))
	}
	return shells[0]
}

func TestNewGameSpawnsConfiguredTanks(t *testing.T) {
	cfg := config.MustLoad("")
	g := newTestGame(t, cfg, Options{Seed: 1})
	defer g.Close()

	if g.Planets() != 1 {
		t.Fatalf("Planets = %d, want 1", g.Planets())
	}
	alive := g.Alive()
	if alive[0] != 2 || alive[1] != 2 {
		t.Errorf("Alive = %v, want 2 per player", alive)
	}
	p, _ := g.Planet(0)
	if n := len(p.Crust.Platforms()); n != 1 {
		t.Errorf("platforms = %d, want 1", n)
	}
	if g.field.Sources() != 1 {
		t.Errorf("gravity sources = %d, want 1", g.field.Sources())
	}

	frame := g.Frame(0)
	query := g.unitFilter.Query()
	for query.Next() {
		body, _ := query.Get()
		lng, alt := frame.WorldToGeo(body.Handle.Position())
		ground := p.Crust.AltitudeAt(lng * math.Pi / 180)
		if alt < ground+cfg.Units.TankHeight/2 {
			t.Errorf("%s at longitude %.1f is at altitude %.2f, below ground %.2f", body.Tag, lng, alt, ground)
		}
	}
}

func TestSpawnTankRejectsUnknownPlanet(t *testing.T) {
	g := newTestGame(t, flatConfig(t, ""), Options{})
	defer g.Close()

	if _, err := g.SpawnTank(3, 0, 0, false); err == nil {
		t.Error("expected error for planet index out of range")
	}
}

func TestPlatformSiteOccupied(t *testing.T) {
	g := newTestGame(t, flatConfig(t, ""), Options{})
	defer g.Close()
	p, _ := g.Planet(0)

	if _, err := g.SpawnTank(0, 100, 1, true); err != nil {
		t.Fatalf("SpawnTank: %v", err)
	}
	if n := len(p.Crust.Platforms()); n != 1 {
		t.Errorf("platforms after reusing a site = %d, want 1", n)
	}
	if _, err := g.SpawnTank(0, 200, 1, true); err != nil {
		t.Fatalf("SpawnTank: %v", err)
	}
	if n := len(p.Crust.Platforms()); n != 2 {
		t.Errorf("platforms after a fresh site = %d, want 2", n)
	}
}

func TestShellHitDamagesAndKills(t *testing.T) {
	cfg := flatConfig(t, "")
	g := newTestGame(t, cfg, Options{})
	defer g.Close()

	units := unitsByPlayer(g)
	shooter, victim := units[0], units[1]
	victimBody := *g.bodyMap.Get(victim)
	shooterID := g.unitMap.Get(shooter).ID
	bodies := g.phys.Bodies()

	hit := func() physics.Contact {
		g.Fire(shooter)
		se := onlyShell(t, g)
		sb := g.bodyMap.Get(se)
		return physics.Contact{A: sb.Tag, B: victimBody.Tag, BodyA: sb.Handle, BodyB: victimBody.Handle}
	}

	c := hit()
	if g.phys.Bodies() != bodies+1 {
		t.Errorf("bodies after firing = %d, want %d", g.phys.Bodies(), bodies+1)
	}
	v0 := victimBody.Handle.Velocity()
	if g.shellHitsUnit(c) {
		t.Error("shell contact should not be resolved by the engine")
	}
	if hp := g.unitMap.Get(victim).HP; hp != cfg.Units.TankHP-cfg.Units.ShellDamage {
		t.Errorf("victim hp = %v, want %v", hp, cfg.Units.TankHP-cfg.Units.ShellDamage)
	}
	if dv := r2.Norm(r2.Sub(victimBody.Handle.Velocity(), v0)); dv < 1 {
		t.Errorf("hit impulse changed velocity by %v, want an amplified push", dv)
	}

	// A spent shell does no further damage.
	g.shellHitsUnit(c)
	if hp := g.unitMap.Get(victim).HP; hp != cfg.Units.TankHP-cfg.Units.ShellDamage {
		t.Errorf("victim hp after repeat contact = %v", hp)
	}
	g.cleanup()
	if g.phys.Bodies() != bodies {
		t.Errorf("bodies after cleanup = %d, want %d", g.phys.Bodies(), bodies)
	}

	g.unitMap.Get(victim).HP = 10
	g.shellHitsUnit(hit())
	if !g.unitMap.Get(victim).Dead {
		t.Fatal("victim should be dead")
	}
	if ls := g.lifetime.Get(shooterID); ls.Hits != 2 || ls.Kills != 1 || ls.Shots != 2 {
		t.Errorf("shooter lifetime = %+v, want 2 shots, 2 hits, 1 kill", ls)
	}

	g.cleanup()
	if g.world.Alive(victim) {
		t.Error("dead unit still in the world")
	}
	if player, ok := g.Winner(); !ok || player != 0 {
		t.Errorf("Winner = %d, %v, want 0, true", player, ok)
	}
}

func TestGroundContactTracksSurface(t *testing.T) {
	g := newTestGame(t, flatConfig(t, ""), Options{})
	defer g.Close()

	tank := unitsByPlayer(g)[0]
	tag := g.bodyMap.Get(tank).Tag
	_, pe := g.Planet(0)
	planetTag := g.bodyMap.Get(pe).Tag

	var platformTag components.Tag
	for t2, e := range g.byTag {
		if t2.Kind() == components.KindPlatform && e == pe {
			platformTag = t2
		}
	}
	if platformTag == 0 {
		t.Fatal("platform shape not registered")
	}

	g.unitTouchesGround(physics.Contact{A: tag, B: planetTag})
	g.unitTouchesGround(physics.Contact{A: tag, B: platformTag})
	s := g.surfMap.Get(tank)
	if !s.Grounded() || s.Planet != pe || s.Contacts != 2 {
		t.Fatalf("surface = %+v, want grounded on the planet with 2 contacts", *s)
	}

	g.unitLeavesGround(physics.Contact{A: tag, B: planetTag})
	if !s.Grounded() {
		t.Error("unit lost ground with one contact left")
	}
	g.unitLeavesGround(physics.Contact{A: tag, B: platformTag})
	if s.Grounded() || !s.Planet.IsZero() {
		t.Errorf("surface after leaving = %+v, want reset", *s)
	}
}

func TestStepFiresAtEnemies(t *testing.T) {
	cfg := config.MustLoad("")
	var total telemetry.WindowStats
	g := newTestGame(t, cfg, Options{
		Seed: 7,
		StatsCallback: func(s telemetry.WindowStats) {
			total.Solves += s.Solves
			total.Shots += s.Shots
		},
	})
	defer g.Close()

	for i := 0; i < 600; i++ {
		g.Step()
	}
	if g.Tick() != 600 {
		t.Errorf("Tick = %d, want 600", g.Tick())
	}
	if total.Solves == 0 {
		t.Error("no targeting solves in 10 seconds")
	}
	if total.Shots == 0 {
		t.Error("no shells fired in 10 seconds")
	}
}

func TestTelemetryOutputAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := flatConfig(t, "telemetry:\n  stats_window: 0.5\n")
	g := newTestGame(t, cfg, Options{OutputDir: dir})

	for i := 0; i < 70; i++ {
		g.Step()
	}

	snap := g.Snapshot()
	if len(snap.Planets) != 1 || len(snap.Planets[0].Altitudes) != cfg.Planet.Segments {
		t.Fatalf("snapshot planets = %+v", snap.Planets)
	}
	if got := len(snap.Planets[0].Outline); got < cfg.Planet.Segments {
		t.Errorf("snapshot outline has %d points, want at least %d", got, cfg.Planet.Segments)
	}
	if snap.Planets[0].Platforms != 1 {
		t.Errorf("snapshot platforms = %d, want 1", snap.Planets[0].Platforms)
	}
	if len(snap.Units) != 2 {
		t.Errorf("snapshot units = %d, want 2", len(snap.Units))
	}
	for _, u := range snap.Units {
		if u.Kind != "tank" || u.Lifetime == nil {
			t.Errorf("unit %d kind %q lifetime %v", u.ID, u.Kind, u.Lifetime)
		}
	}

	g.Close()

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	// Header plus one row per 30-tick window.
	if lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; lines != 3 {
		t.Errorf("telemetry.csv has %d lines, want 3", lines)
	}
	for _, name := range []string{"perf.csv", "aim.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestStaleSurfacePlanetIsIgnored(t *testing.T) {
	g := newTestGame(t, flatConfig(t, ""), Options{})
	defer g.Close()

	tank := unitsByPlayer(g)[0]
	scratch := ecs.NewMap1[components.Planet](g.world)
	stale := scratch.NewEntity(&components.Planet{Index: 9})
	g.world.RemoveEntity(stale)

	s := g.surfMap.Get(tank)
	s.Planet = stale
	s.Contacts = 1

	h := g.bodyMap.Get(tank).Handle
	spin := h.AngularVelocity()
	g.unitVelocity(h, g.cfg.Physics.DT)
	if h.AngularVelocity() != spin {
		t.Errorf("spin changed to %f on a removed planet", h.AngularVelocity())
	}
	for _, u := range g.Snapshot().Units {
		if u.Planet != -1 {
			t.Errorf("unit %d reports planet %d, want -1", u.ID, u.Planet)
		}
	}
	g.logWorldState()

	g.Fire(ecs.Entity{})
	g.Fire(stale)
	query := g.shellFilter.Query()
	n := query.Count()
	query.Close()
	if n != 0 {
		t.Errorf("fired %d shells from dead entities", n)
	}
}

func TestCraterDrawsDownDeposit(t *testing.T) {
	cfg := config.MustLoad("")
	g := newTestGame(t, cfg, Options{Seed: 11})
	defer g.Close()

	p, pe := g.Planet(0)
	crust := p.Crust
	seg := -1
	for i := 0; i < crust.Len(); i++ {
		if crust.Segment(i).Deposit >= 0 {
			seg = i
			break
		}
	}
	if seg < 0 {
		t.Fatal("default planet has no deposits")
	}
	s := crust.Segment(seg)
	a := (s.A1 + s.A2) / 2
	at := g.Frame(0).PolarToWorld(crust.CoreRadius()+crust.AltitudeAt(a)-1, a)

	before := crust.Deposit(s.Deposit).Remaining
	if n := g.crater(pe, at); n != cfg.Units.CraterYield {
		t.Errorf("crater yield = %d, want %d", n, cfg.Units.CraterYield)
	}
	if got := crust.Deposit(s.Deposit).Remaining; got != before-cfg.Units.CraterYield {
		t.Errorf("remaining = %d, want %d", got, before-cfg.Units.CraterYield)
	}

	snap := g.Snapshot()
	if got := snap.Planets[0].Deposits[s.Deposit]; int64(got) != before-cfg.Units.CraterYield {
		t.Errorf("snapshot remaining = %d, want %d", got, before-cfg.Units.CraterYield)
	}
	if got, want := len(snap.Planets[0].Strata), len(crust.StratumQuads()); got == 0 || got != want {
		t.Errorf("snapshot strata = %d, want %d (non-zero)", got, want)
	}

	// Bare rock yields nothing.
	for i := 0; i < crust.Len(); i++ {
		if s := crust.Segment(i); s.Deposit < 0 {
			a := (s.A1 + s.A2) / 2
			if n := g.crater(pe, g.Frame(0).PolarToWorld(crust.CoreRadius(), a)); n != 0 {
				t.Errorf("crater on segment %d yielded %d, want 0", i, n)
			}
			break
		}
	}
}

func TestSpawnTankStacksOnCrowdedSite(t *testing.T) {
	g := newTestGame(t, flatConfig(t, ""), Options{})
	defer g.Close()

	first, err := g.SpawnTank(0, 200, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.SpawnTank(0, 200, 1, false)
	if err != nil {
		t.Fatal(err)
	}

	frame := g.Frame(0)
	lower, _ := frame.WorldToPolar(g.bodyMap.Get(first).Handle.Position())
	upper, _ := frame.WorldToPolar(g.bodyMap.Get(second).Handle.Position())
	if upper-lower < g.cfg.Units.TankHeight {
		t.Errorf("second tank at radius %.1f, first at %.1f; want it stacked above", upper, lower)
	}
	if g.crowded(frame.PolarToWorld(upper+100, 0), 1) {
		t.Error("empty space reported crowded")
	}
}

func TestFireHoldsWhenMuzzleBuried(t *testing.T) {
	g := newTestGame(t, flatConfig(t, ""), Options{})
	defer g.Close()

	if !g.buried(g.Frame(0).Position) {
		t.Fatal("planet center not reported as terrain")
	}

	tank := unitsByPlayer(g)[0]
	g.tankMap.Get(tank).GunAngle = -math.Pi / 2 // straight into the ground
	g.Fire(tank)

	query := g.shellFilter.Query()
	n := query.Count()
	query.Close()
	if n != 0 {
		t.Errorf("fired %d shells into the ground", n)
	}
	if shots := g.tankMap.Get(tank).Shots; shots != 0 {
		t.Errorf("shots = %d, want 0", shots)
	}
}
