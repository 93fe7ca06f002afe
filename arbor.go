package arbor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/story"
	"github.com/aretw0/arbor/pkg/variables"
)

// Project is the high-level entry point of the library. It binds a story to
// the condition engine and variable manager that drive it, and lays out its
// scene graph on demand.
type Project struct {
	story  *story.Story
	engine *condition.Engine
	vars   *variables.Manager

	logger       *slog.Logger
	hooks        domain.Hooks
	historyLimit int
	cacheTTL     time.Duration
	layoutCfg    layout.Config
	seed         *int64
	pins         map[string]layout.Point
}

// Option defines a functional option for configuring the Project.
type Option func(*Project)

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Project) {
		p.logger = logger
	}
}

// WithHooks registers observability callbacks on the variable manager.
func WithHooks(hooks domain.Hooks) Option {
	return func(p *Project) {
		p.hooks = hooks
	}
}

// WithHistoryLimit bounds the variable change history.
func WithHistoryLimit(n int) Option {
	return func(p *Project) {
		p.historyLimit = n
	}
}

// WithConditionCache enables memoized condition evaluation for ttl.
func WithConditionCache(ttl time.Duration) Option {
	return func(p *Project) {
		p.cacheTTL = ttl
	}
}

// WithLayoutConfig replaces the default layout tuning.
func WithLayoutConfig(cfg layout.Config) Option {
	return func(p *Project) {
		p.layoutCfg = cfg
	}
}

// WithLayoutSeed makes initial node placement reproducible.
func WithLayoutSeed(seed int64) Option {
	return func(p *Project) {
		p.seed = &seed
	}
}

// WithPin fixes a scene at (x, y) in every layout run.
func WithPin(sceneID string, x, y float64) Option {
	return func(p *Project) {
		if p.pins == nil {
			p.pins = make(map[string]layout.Point)
		}
		p.pins[sceneID] = layout.Point{X: x, Y: y}
	}
}

func newProject(s *story.Story, opts []Option) *Project {
	p := &Project{
		story:     s,
		logger:    logging.NewNop(),
		layoutCfg: layout.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open loads a story file and builds a Project from it.
func Open(path string, opts ...Option) (*Project, error) {
	s, err := story.Load(path)
	if err != nil {
		return nil, err
	}
	return New(s, opts...)
}

// New builds a Project with a fresh engine and variable manager holding the
// story's variables, gates and scene actions.
func New(s *story.Story, opts ...Option) (*Project, error) {
	p := newProject(s, opts)
	p.engine = condition.New(
		condition.WithLogger(p.logger),
		condition.WithCacheTTL(p.cacheTTL),
	)
	p.vars = variables.New(p.engine,
		variables.WithLogger(p.logger),
		variables.WithHooks(p.hooks),
		variables.WithHistoryLimit(p.historyLimit),
	)
	if err := p.vars.Import(s.Project()); err != nil {
		return nil, fmt.Errorf("import story: %w", err)
	}
	return p, nil
}

// Attach wraps a variable manager that already holds the story's state,
// e.g. one restored by session.Manager.Update. Manager-level options
// (hooks, history, cache) are ignored.
func Attach(s *story.Story, vars *variables.Manager, opts ...Option) *Project {
	p := newProject(s, opts)
	p.engine = vars.Engine()
	p.vars = vars
	return p
}

// Story returns the underlying story.
func (p *Project) Story() *story.Story {
	return p.story
}

// Variables returns the variable manager driving the story.
func (p *Project) Variables() *variables.Manager {
	return p.vars
}

// Engine returns the condition engine.
func (p *Project) Engine() *condition.Engine {
	return p.engine
}

// Validate checks the story's scene graph and conditions.
func (p *Project) Validate() condition.ValidationResult {
	return p.story.Validate(p.engine)
}

// Layout builds the scene graph layout and runs it to convergence, the
// iteration cap or cancellation.
func (p *Project) Layout(ctx context.Context) (*layout.Layout, layout.Result, error) {
	nodes, edges := p.story.Graph()
	opts := []layout.Option{layout.WithLogger(p.logger)}
	if p.seed != nil {
		opts = append(opts, layout.WithSeed(*p.seed))
	}
	l, err := layout.New(nodes, edges, p.layoutCfg, opts...)
	if err != nil {
		return nil, layout.Result{}, err
	}
	for id, pt := range p.pins {
		if !l.FixNode(id, pt.X, pt.Y) {
			p.logger.Warn("pin ignored, unknown scene", "scene_id", id)
		}
	}
	res, err := l.Run(ctx)
	return l, res, err
}

// Start begins a new playthrough at the story's start scene. Variables are
// reset to their defaults first.
func (p *Project) Start(name string) domain.PlaythroughState {
	return p.vars.StartPlaythrough(name, p.story.StartScene())
}

// ChoiceOption is a choice of the current scene as offered to the player.
type ChoiceOption struct {
	story.Choice
	Available bool
	// Redirect is the fallback taken when an unavailable choice is picked.
	Redirect string
}

// Choices lists the choices of the current scene with their availability.
func (p *Project) Choices() ([]ChoiceOption, error) {
	pt, ok := p.vars.Playthrough()
	if !ok {
		return nil, domain.ErrNoPlaythrough
	}
	sc, ok := p.story.Scene(pt.CurrentSceneID)
	if !ok {
		return nil, nil
	}
	out := make([]ChoiceOption, 0, len(sc.Choices))
	for _, ch := range sc.Choices {
		opt := ChoiceOption{Choice: ch, Available: p.vars.IsChoiceAvailable(ch.ID)}
		if !opt.Available {
			opt.Redirect, _ = p.vars.FallbackChoice(ch.ID)
		}
		out = append(out, opt)
	}
	return out, nil
}

// Choose follows a choice of the current scene. A blocked choice follows
// its fallback when the fallback is itself available; otherwise
// ErrChoiceUnavailable is returned and nothing changes.
func (p *Project) Choose(choiceID string) (domain.PlaythroughState, error) {
	pt, ok := p.vars.Playthrough()
	if !ok {
		return domain.PlaythroughState{}, domain.ErrNoPlaythrough
	}
	sc, ok := p.story.Scene(pt.CurrentSceneID)
	if !ok {
		return pt, fmt.Errorf("%w: scene %q has no choices", domain.ErrChoiceNotFound, pt.CurrentSceneID)
	}

	ch, ok := findChoice(sc, choiceID)
	if !ok {
		return pt, fmt.Errorf("%w: %q in scene %q", domain.ErrChoiceNotFound, choiceID, sc.ID)
	}
	if !p.vars.IsChoiceAvailable(ch.ID) {
		fallback, hasFallback := p.vars.FallbackChoice(ch.ID)
		if !hasFallback {
			return pt, fmt.Errorf("%w: %q", domain.ErrChoiceUnavailable, ch.ID)
		}
		next, _, found := p.story.Choice(fallback)
		if !found || !p.vars.IsChoiceAvailable(next.ID) {
			return pt, fmt.Errorf("%w: %q and its fallback %q", domain.ErrChoiceUnavailable, ch.ID, fallback)
		}
		p.logger.Debug("choice redirected", "choice_id", ch.ID, "fallback", next.ID)
		ch = next
	}
	if ch.Target == "" {
		return pt, fmt.Errorf("%w: %q leads nowhere", domain.ErrChoiceUnavailable, ch.ID)
	}

	p.vars.EnterScene(ch.Target, ch.ID)
	pt, _ = p.vars.Playthrough()
	return pt, nil
}

func findChoice(sc story.Scene, id string) (story.Choice, bool) {
	for _, ch := range sc.Choices {
		if ch.ID == id {
			return ch, true
		}
	}
	return story.Choice{}, false
}
