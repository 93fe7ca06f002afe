package layout

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
)

// Point is a 2D canvas coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a scene of the story graph. Zero sizes use the configured default.
type Node struct {
	ID         string  `json:"id" yaml:"id"`
	Width      float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height     float64 `json:"height,omitempty" yaml:"height,omitempty"`
	IsFirst    bool    `json:"isFirst,omitempty" yaml:"isFirst,omitempty"`
	IsDeadEnd  bool    `json:"isDeadEnd,omitempty" yaml:"isDeadEnd,omitempty"`
	IsOrphaned bool    `json:"isOrphaned,omitempty" yaml:"isOrphaned,omitempty"`
}

// Edge is a directed choice between two scenes. A zero weight counts as 1.
type Edge struct {
	ID     string  `json:"id" yaml:"id"`
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// NodeState is the simulation state of one node.
type NodeState struct {
	ID       string `json:"id" yaml:"id"`
	Position Point  `json:"position" yaml:"position"`
	Velocity Point  `json:"velocity" yaml:"velocity"`
	Depth    int    `json:"depth" yaml:"depth"`
	Fixed    bool   `json:"fixed" yaml:"fixed"`
}

type body struct {
	id       string
	pos, vel Point
	w, h     float64
	depth    int
	fixed    bool
	pin      Point
}

type spring struct {
	a, b   int
	weight float64
}

// Layout is an iterative force-directed simulation over a story graph.
// Methods are safe for concurrent use, so a UI may read Positions while a
// background goroutine runs the simulation.
type Layout struct {
	mu     sync.Mutex
	cfg    Config
	logger *slog.Logger
	seed   *int64

	bodies   []*body
	index    map[string]int
	springs  []spring
	depths   map[string]int
	maxLevel int
}

// Option configures the Layout.
type Option func(*Layout)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Layout) {
		l.logger = logger
	}
}

// WithSeed makes the initial jitter reproducible.
func WithSeed(seed int64) Option {
	return func(l *Layout) {
		l.seed = &seed
	}
}

// New builds a simulation and places every node at its initial position.
// Edges that reference unknown nodes are skipped.
func New(nodes []Node, edges []Edge, cfg Config, opts ...Option) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	l := &Layout{
		cfg:    cfg,
		logger: logging.NewNop(),
		index:  make(map[string]int, len(nodes)),
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("layout: node without id")
		}
		if _, dup := l.index[n.ID]; dup {
			return nil, fmt.Errorf("layout: duplicate node %q", n.ID)
		}
		b := &body{id: n.ID, w: n.Width, h: n.Height}
		if b.w <= 0 {
			b.w = cfg.NodeWidth
		}
		if b.h <= 0 {
			b.h = cfg.NodeHeight
		}
		l.index[n.ID] = len(l.bodies)
		l.bodies = append(l.bodies, b)
	}

	for _, e := range edges {
		a, okA := l.index[e.Source]
		b, okB := l.index[e.Target]
		if !okA || !okB {
			l.logger.Debug("skipping edge with unknown endpoint", "edge_id", e.ID, "source", e.Source, "target", e.Target)
			continue
		}
		if a == b {
			continue
		}
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		l.springs = append(l.springs, spring{a: a, b: b, weight: w})
	}

	l.depths = Depths(nodes, edges)
	l.assignLevels()

	seed, err := l.seedValue()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	l.place(rng)
	return l, nil
}

func (l *Layout) seedValue() (int64, error) {
	if l.seed != nil {
		return *l.seed, nil
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Depths computes shortest-hop depths from the start scene with BFS. The
// start is the node flagged IsFirst, or else the only node without incoming
// edges. Unreachable nodes are absent from the map. Without a start the map
// is empty.
func Depths(nodes []Node, edges []Edge) map[string]int {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	adj := make(map[string][]string)
	incoming := make(map[string]int)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		if e.Source != e.Target {
			incoming[e.Target]++
		}
	}

	start := ""
	for _, n := range nodes {
		if n.IsFirst {
			start = n.ID
			break
		}
	}
	if start == "" {
		var roots []string
		for _, n := range nodes {
			if incoming[n.ID] == 0 {
				roots = append(roots, n.ID)
			}
		}
		if len(roots) == 1 {
			start = roots[0]
		}
	}

	depths := make(map[string]int)
	if start == "" {
		return depths
	}
	depths[start] = 0
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if _, seen := depths[next]; !seen {
				depths[next] = depths[id] + 1
				queue = append(queue, next)
			}
		}
	}
	return depths
}

// assignLevels gives unreachable nodes maxDepth+1.
func (l *Layout) assignLevels() {
	maxDepth := 0
	for _, d := range l.depths {
		maxDepth = max(maxDepth, d)
	}
	l.maxLevel = maxDepth
	for _, b := range l.bodies {
		if d, ok := l.depths[b.id]; ok {
			b.depth = d
			continue
		}
		b.depth = maxDepth + 1
		l.maxLevel = maxDepth + 1
	}
}

// axisTarget is the depth-proportional coordinate on the flow axis.
func (l *Layout) axisTarget(depth int) float64 {
	c := l.cfg
	length := c.Width
	if !c.Direction.horizontal() {
		length = c.Height
	}
	usable := length - 2*c.Padding
	spacing := usable / float64(max(l.maxLevel, 1))
	offset := c.Padding + float64(depth)*spacing
	if c.Direction == RightToLeft || c.Direction == BottomToTop {
		return length - offset
	}
	return offset
}

func (l *Layout) place(rng *rand.Rand) {
	c := l.cfg
	for _, b := range l.bodies {
		jitter := (rng.Float64() - 0.5) * c.InitialJitter
		axis := l.axisTarget(b.depth)
		if c.Direction.horizontal() {
			b.pos = Point{X: axis, Y: c.Height/2 + jitter}
		} else {
			b.pos = Point{X: c.Width/2 + jitter, Y: axis}
		}
		b.pos = l.clamp(b.pos)
	}
}

func (l *Layout) clamp(p Point) Point {
	c := l.cfg
	p.X = min(max(p.X, c.Padding), c.Width-c.Padding)
	p.Y = min(max(p.Y, c.Padding), c.Height-c.Padding)
	return p
}

// FixNode pins a node at (x, y) until ReleaseNode.
func (l *Layout) FixNode(id string, x, y float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return false
	}
	b := l.bodies[i]
	b.fixed = true
	b.pin = Point{X: x, Y: y}
	b.pos = b.pin
	b.vel = Point{}
	return true
}

// ReleaseNode lets a pinned node move again.
func (l *Layout) ReleaseNode(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.bodies[i].fixed = false
	return true
}

// Positions returns the current id→coordinate mapping.
func (l *Layout) Positions() map[string]Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Point, len(l.bodies))
	for _, b := range l.bodies {
		out[b.id] = b.pos
	}
	return out
}

// Nodes returns the state of every node in input order.
func (l *Layout) Nodes() []NodeState {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]NodeState, len(l.bodies))
	for i, b := range l.bodies {
		out[i] = NodeState{ID: b.id, Position: b.pos, Velocity: b.vel, Depth: b.depth, Fixed: b.fixed}
	}
	return out
}

// Depths returns the effective depth of every node, with unreachable nodes
// at the deepest level plus one.
func (l *Layout) Depths() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.bodies))
	for _, b := range l.bodies {
		out[b.id] = b.depth
	}
	return out
}

// Config returns the active configuration.
func (l *Layout) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// UpdateConfig merges partial configuration changes, keyed by the
// mapstructure names of Config. Invalid changes leave the config untouched.
func (l *Layout) UpdateConfig(changes map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged, err := l.cfg.Merge(changes)
	if err != nil {
		return err
	}
	l.cfg = merged
	return nil
}
