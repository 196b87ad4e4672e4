// Package layout positions graph nodes with a small force-directed
// simulation: pairwise inverse-square repulsion, a weak centering pull,
// spring attraction along edges, explicit Euler integration with damping.
// The simulation is an owned object with no ambient state, so runs are
// deterministic for a fixed seed.
package layout

import (
	"math"
	"math/rand"

	"github.com/aurelia-app/aurelia/backend/pkg/graph"
)

// Config holds the physics constants of a simulation. Zero values are
// replaced by the defaults from DefaultConfig.
type Config struct {
	Width     float64
	Height    float64
	Repulsion float64
	Centering float64
	Spring    float64
	Damping   float64
	Steps     int
	Seed      int64
}

// DefaultConfig returns the tuning used by the graph visualization.
func DefaultConfig() Config {
	return Config{
		Width:     800,
		Height:    600,
		Repulsion: 8000,
		Centering: 0.01,
		Spring:    0.02,
		Damping:   0.85,
		Steps:     100,
	}
}

// Position is a 2D point on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type node struct {
	id     int64
	pos    Position
	vel    Position
	pinned bool
}

type edge struct {
	source int
	target int
}

// Simulation owns positions and velocities for one layout run. It is not
// safe for concurrent use.
type Simulation struct {
	cfg   Config
	nodes []node
	index map[int64]int
	edges []edge
	steps int
}

// NewSimulation seeds a simulation from the given entities and
// relationships. Nodes start on a circle around the canvas center, in
// entity order, with a small seeded jitter so coincident starts cannot lock
// the repulsion force at zero. Relationships whose endpoints are not in the
// entity list are ignored.
func NewSimulation(entities []graph.Entity, relationships []graph.Relationship, cfg Config) *Simulation {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Repulsion <= 0 {
		cfg.Repulsion = def.Repulsion
	}
	if cfg.Centering <= 0 {
		cfg.Centering = def.Centering
	}
	if cfg.Spring <= 0 {
		cfg.Spring = def.Spring
	}
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		cfg.Damping = def.Damping
	}
	if cfg.Steps <= 0 {
		cfg.Steps = def.Steps
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	cx, cy := cfg.Width/2, cfg.Height/2
	radius := math.Min(cfg.Width, cfg.Height) / 3

	s := &Simulation{
		cfg:   cfg,
		nodes: make([]node, 0, len(entities)),
		index: make(map[int64]int, len(entities)),
	}
	for i, entity := range entities {
		angle := 2 * math.Pi * float64(i) / float64(max(len(entities), 1))
		s.index[entity.ID] = len(s.nodes)
		s.nodes = append(s.nodes, node{
			id: entity.ID,
			pos: Position{
				X: cx + radius*math.Cos(angle) + rng.Float64()*10 - 5,
				Y: cy + radius*math.Sin(angle) + rng.Float64()*10 - 5,
			},
		})
	}

	for _, rel := range relationships {
		si, ok := s.index[rel.SourceID]
		if !ok {
			continue
		}
		ti, ok := s.index[rel.TargetID]
		if !ok {
			continue
		}
		if si == ti {
			continue
		}
		s.edges = append(s.edges, edge{source: si, target: ti})
	}

	return s
}

// Step advances the simulation by one tick. It returns false once the
// configured step budget is spent; callers drive the loop, so user
// interaction can interleave between ticks.
func (s *Simulation) Step() bool {
	if s.steps >= s.cfg.Steps {
		return false
	}
	s.steps++

	for i := range s.nodes {
		if s.nodes[i].pinned {
			continue
		}
		for j := range s.nodes {
			if i == j {
				continue
			}
			dx := s.nodes[i].pos.X - s.nodes[j].pos.X
			dy := s.nodes[i].pos.Y - s.nodes[j].pos.Y
			distSq := dx*dx + dy*dy
			if distSq < 1 {
				distSq = 1
			}
			dist := math.Sqrt(distSq)
			force := s.cfg.Repulsion / distSq
			s.nodes[i].vel.X += force * dx / dist
			s.nodes[i].vel.Y += force * dy / dist
		}

		s.nodes[i].vel.X += (s.cfg.Width/2 - s.nodes[i].pos.X) * s.cfg.Centering
		s.nodes[i].vel.Y += (s.cfg.Height/2 - s.nodes[i].pos.Y) * s.cfg.Centering
	}

	for _, e := range s.edges {
		dx := s.nodes[e.target].pos.X - s.nodes[e.source].pos.X
		dy := s.nodes[e.target].pos.Y - s.nodes[e.source].pos.Y
		if !s.nodes[e.source].pinned {
			s.nodes[e.source].vel.X += dx * s.cfg.Spring
			s.nodes[e.source].vel.Y += dy * s.cfg.Spring
		}
		if !s.nodes[e.target].pinned {
			s.nodes[e.target].vel.X -= dx * s.cfg.Spring
			s.nodes[e.target].vel.Y -= dy * s.cfg.Spring
		}
	}

	for i := range s.nodes {
		if s.nodes[i].pinned {
			continue
		}
		s.nodes[i].pos.X += s.nodes[i].vel.X
		s.nodes[i].pos.Y += s.nodes[i].vel.Y
		s.nodes[i].vel.X *= s.cfg.Damping
		s.nodes[i].vel.Y *= s.cfg.Damping

		s.nodes[i].pos.X = clamp(s.nodes[i].pos.X, 0, s.cfg.Width)
		s.nodes[i].pos.Y = clamp(s.nodes[i].pos.Y, 0, s.cfg.Height)
	}

	return s.steps < s.cfg.Steps
}

// Run drives the simulation until the step budget is exhausted and returns
// the final positions.
func (s *Simulation) Run() map[int64]Position {
	for s.Step() {
	}
	return s.Positions()
}

// Positions returns the current position of every node, keyed by entity id.
func (s *Simulation) Positions() map[int64]Position {
	out := make(map[int64]Position, len(s.nodes))
	for _, n := range s.nodes {
		out[n.id] = n.pos
	}
	return out
}

// Pin places a node at the given position, zeroes its velocity and excludes
// it from the simulation until released. Used for drag interaction.
func (s *Simulation) Pin(id int64, pos Position) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.nodes[i].pos = Position{
		X: clamp(pos.X, 0, s.cfg.Width),
		Y: clamp(pos.Y, 0, s.cfg.Height),
	}
	s.nodes[i].vel = Position{}
	s.nodes[i].pinned = true
}

// Release returns a pinned node to the simulation.
func (s *Simulation) Release(id int64) {
	if i, ok := s.index[id]; ok {
		s.nodes[i].pinned = false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
