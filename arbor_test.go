package arbor_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/story"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ferryPath = "pkg/story/testdata/ferry.yaml"

func openFerry(t *testing.T, opts ...arbor.Option) *arbor.Project {
	t.Helper()
	p, err := arbor.Open(ferryPath, opts...)
	require.NoError(t, err)
	return p
}

func TestOpen(t *testing.T) {
	p := openFerry(t)

	assert.Equal(t, "The Ferry", p.Story().Title)
	assert.Len(t, p.Variables().Variables(), 4)
	assert.Len(t, p.Variables().BranchConditions(), 1)
	assert.True(t, p.Validate().IsValid)

	_, err := arbor.Open("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestNew_RejectsInvalidStory(t *testing.T) {
	s, err := story.Parse([]byte(`
variables:
  - {id: gold, type: number, default: 50, max: 10}
scenes:
  - {id: a}
`))
	require.NoError(t, err)

	_, err = arbor.New(s)
	assert.Error(t, err)
}

func TestPlaythrough(t *testing.T) {
	p := openFerry(t)

	_, err := p.Choose("talk")
	assert.ErrorIs(t, err, domain.ErrNoPlaythrough)
	_, err = p.Choices()
	assert.ErrorIs(t, err, domain.ErrNoPlaythrough)

	start := p.Start("run")
	assert.Equal(t, "dock", start.CurrentSceneID)

	_, err = p.Choose("confide")
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)

	state, err := p.Choose("talk")
	require.NoError(t, err)
	assert.Equal(t, "ferry", state.CurrentSceneID)
	assert.Equal(t, domain.Number(20), state.Values["trust"])

	choices, err := p.Choices()
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "confide", choices[0].ID)
	assert.False(t, choices[0].Available)
	assert.Equal(t, "jump", choices[0].Redirect)
	assert.True(t, choices[1].Available)
	assert.Empty(t, choices[1].Redirect)

	state, err = p.Choose("confide")
	require.NoError(t, err)
	assert.Equal(t, "shore", state.CurrentSceneID)
	assert.Equal(t, []string{"dock", "ferry", "shore"}, state.Visited())
	assert.Equal(t, 2, state.TotalChoices)
	assert.Equal(t, []string{"jump"}, state.Path[2].Choices)

	_, err = p.Choose("jump")
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)
}

func TestChoose_OpenGate(t *testing.T) {
	p := openFerry(t)
	p.Start("run")
	_, err := p.Choose("steal")
	require.NoError(t, err)

	require.True(t, p.Variables().SetValue("trust", domain.Number(40), domain.SourceUser, "ferry"))
	state, err := p.Choose("confide")
	require.NoError(t, err)
	assert.Equal(t, "island", state.CurrentSceneID)
}

func TestChoose_BlockedWithoutFallback(t *testing.T) {
	s, err := story.Parse([]byte(`
variables:
  - {id: key, type: boolean}
scenes:
  - id: hall
    choices:
      - {id: door, to: vault, when: key}
  - id: vault
`))
	require.NoError(t, err)
	p, err := arbor.New(s)
	require.NoError(t, err)

	p.Start("run")
	state, err := p.Choose("door")
	assert.ErrorIs(t, err, domain.ErrChoiceUnavailable)
	assert.Equal(t, "hall", state.CurrentSceneID)

	p.Variables().Toggle("key", domain.SourceUser)
	state, err = p.Choose("door")
	require.NoError(t, err)
	assert.Equal(t, "vault", state.CurrentSceneID)
}

func TestAttach(t *testing.T) {
	s, err := story.Load(ferryPath)
	require.NoError(t, err)

	vm := variables.New(nil)
	require.NoError(t, vm.Import(s.Project()))

	p := arbor.Attach(s, vm)
	assert.Same(t, vm, p.Variables())
	assert.Same(t, vm.Engine(), p.Engine())

	p.Start("attached")
	_, err = p.Choose("talk")
	require.NoError(t, err)
	v, _ := vm.Value("trust")
	assert.Equal(t, domain.Number(20), v)
}

func TestLayout(t *testing.T) {
	p := openFerry(t, arbor.WithLayoutSeed(7))

	l, res, err := p.Layout(context.Background())
	require.NoError(t, err)
	assert.Positive(t, res.Iterations)

	pos := l.Positions()
	require.Len(t, pos, 5)
	assert.Less(t, pos["dock"].X, pos["ferry"].X)

	cfg := l.Config()
	for id, pt := range pos {
		assert.GreaterOrEqual(t, pt.X, cfg.Padding, id)
		assert.LessOrEqual(t, pt.X, cfg.Width-cfg.Padding, id)
	}

	again, _, err := openFerry(t, arbor.WithLayoutSeed(7)).Layout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pos, again.Positions())
}

func TestLayout_Config(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.MaxIterations = 3
	cfg.ConvergenceThreshold = 0
	p := openFerry(t, arbor.WithLayoutConfig(cfg), arbor.WithLayoutSeed(1))

	_, res, err := p.Layout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Iterations)
	assert.False(t, res.Converged)

	cfg.Width = -1
	_, _, err = openFerry(t, arbor.WithLayoutConfig(cfg)).Layout(context.Background())
	assert.Error(t, err)
}

func TestWithHooks(t *testing.T) {
	var scenes []string
	p := openFerry(t, arbor.WithHooks(domain.Hooks{
		OnSceneEnter: func(e domain.SceneEvent) { scenes = append(scenes, e.SceneID) },
	}))

	p.Start("hooked")
	_, err := p.Choose("talk")
	require.NoError(t, err)
	assert.Equal(t, []string{"dock", "ferry"}, scenes)
}

func TestLayout_Pin(t *testing.T) {
	p := openFerry(t, arbor.WithLayoutSeed(3), arbor.WithPin("ferry", 600, 400), arbor.WithPin("nowhere", 1, 1))

	l, _, err := p.Layout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, layout.Point{X: 600, Y: 400}, l.Positions()["ferry"])
	assert.NotContains(t, l.Positions(), "nowhere")
}
