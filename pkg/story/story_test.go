package story_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/story"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFerry(t *testing.T) *story.Story {
	t.Helper()
	s, err := story.Load("testdata/ferry.yaml")
	require.NoError(t, err)
	return s
}

func codes(issues []condition.Issue) []condition.IssueCode {
	out := make([]condition.IssueCode, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestLoad(t *testing.T) {
	s := loadFerry(t)

	assert.Equal(t, "The Ferry", s.Title)
	assert.Equal(t, "dock", s.StartScene())
	require.Len(t, s.Variables, 4)
	require.Len(t, s.Scenes, 5)

	trust := s.Variables[0]
	assert.Equal(t, domain.KindNumber, trust.Type)
	assert.Equal(t, domain.Number(0), trust.Default)
	require.NotNil(t, trust.Constraints)
	assert.Equal(t, 100.0, *trust.Constraints.Max)

	assert.Equal(t, domain.Strings(), s.Variables[2].Default)
	assert.Equal(t, []domain.Value{domain.String("calm"), domain.String("angry")}, s.Variables[3].Constraints.AllowedValues)

	confide, scene, ok := s.Choice("confide")
	require.True(t, ok)
	assert.Equal(t, "ferry", scene)
	assert.Equal(t, "jump", confide.Fallback)
	assert.Equal(t, domain.And(
		domain.Compare("trust", domain.OpGreaterEqual, domain.Number(30)),
		domain.Not(domain.Check("betrayed", domain.OpIsTrue)),
	), confide.Condition)

	ferry, ok := s.Scene("ferry")
	require.True(t, ok)
	assert.Equal(t, []string{"confide", "jump"}, ferry.ChoiceIDs())
	require.Len(t, ferry.Actions, 2)
	assert.Equal(t, "ferry-trust", ferry.Actions[0].ID)
	assert.Equal(t, "ferry-action-2", ferry.Actions[1].ID)
	assert.Equal(t, "ferry", ferry.Actions[1].SceneID)
	assert.Equal(t, domain.Check("betrayed", domain.OpIsTrue), ferry.Actions[1].Condition)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "scenes: [\n"},
		{"empty", ""},
		{"unknown key", "scenes: [{id: a, colour: red}]"},
		{"bad condition", "scenes: [{id: a, choices: [{id: c, when: {all: nope}}]}]"},
		{"condition without var", "scenes: [{id: a, choices: [{id: c, when: {op: is_true}}]}]"},
		{"unknown discriminant", "scenes: [{id: a, choices: [{id: c, when: {type: xor}}]}]"},
		{"null default list item", "variables: [{id: v, type: string[], default: [a, ~]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := story.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_ConditionForms(t *testing.T) {
	s, err := story.Parse([]byte(`
variables:
  - {id: gold, type: number}
scenes:
  - id: a
    choices:
      - id: shorthand
        when: {any: [{var: gold, op: greater_than, value: 5}, {var: gold, op: is_empty}]}
      - id: exported
        when: {type: simple, variableId: gold, operator: equals, value: 3}
`))
	require.NoError(t, err)

	short, _, _ := s.Choice("shorthand")
	assert.Equal(t, domain.Or(
		domain.Compare("gold", domain.OpGreaterThan, domain.Number(5)),
		domain.Check("gold", domain.OpIsEmpty),
	), short.Condition)

	exported, _, _ := s.Choice("exported")
	assert.Equal(t, domain.Compare("gold", domain.OpEquals, domain.Number(3)), exported.Condition)
}

func TestGraph(t *testing.T) {
	nodes, edges := loadFerry(t).Graph()

	assert.Equal(t, []layout.Node{
		{ID: "dock", IsFirst: true},
		{ID: "ferry", Width: 200, Height: 80},
		{ID: "island", IsDeadEnd: true},
		{ID: "shore", IsDeadEnd: true},
		{ID: "lighthouse", IsDeadEnd: true, IsOrphaned: true},
	}, nodes)
	assert.Equal(t, []layout.Edge{
		{ID: "talk", Source: "dock", Target: "ferry"},
		{ID: "steal", Source: "dock", Target: "ferry", Weight: 2},
		{ID: "confide", Source: "ferry", Target: "island"},
		{ID: "jump", Source: "ferry", Target: "shore"},
	}, edges)

	l, err := layout.New(nodes, edges, layout.DefaultConfig(), layout.WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"dock": 0, "ferry": 1, "island": 2, "shore": 2, "lighthouse": 3}, l.Depths())
}

func TestProject_PlaysThroughManager(t *testing.T) {
	s := loadFerry(t)
	doc := s.Project()
	require.Len(t, doc.BranchConditions, 1)
	assert.Equal(t, story.GateID("confide"), doc.BranchConditions[0].ID)
	assert.True(t, doc.BranchConditions[0].Enabled)
	assert.Len(t, doc.SceneActions, 3)

	m := variables.New(nil)
	require.NoError(t, m.Import(doc))

	p := m.StartPlaythrough("test", s.StartScene())
	assert.Equal(t, domain.Strings("rope"), p.Values["inventory"])

	m.EnterScene("ferry", "talk")
	v, _ := m.Value("trust")
	assert.Equal(t, domain.Number(20), v)

	ferry, _ := s.Scene("ferry")
	assert.Equal(t, []string{"jump"}, m.AvailableChoices(ferry.ChoiceIDs()))
	fallback, ok := m.FallbackChoice("confide")
	assert.True(t, ok)
	assert.Equal(t, "jump", fallback)

	m.EnterScene("ferry", "talk")
	assert.Equal(t, []string{"confide", "jump"}, m.AvailableChoices(ferry.ChoiceIDs()))
}

func TestValidate(t *testing.T) {
	res := loadFerry(t).Validate(nil)
	assert.True(t, res.IsValid, "%v", res.Errors)
	assert.Equal(t, []condition.IssueCode{
		story.IssueDeadEnd, story.IssueDeadEnd, story.IssueDeadEnd, story.IssueUnreachable,
	}, codes(res.Warnings))
	assert.NoError(t, res.Err())
}

func TestValidate_Errors(t *testing.T) {
	s, err := story.Parse([]byte(`
start: nowhere
variables:
  - {id: gold, type: number}
scenes:
  - id: a
    choices:
      - id: go
        to: b
        fallback: ghost
      - id: go
        to: a
        when: {var: missing, op: is_true}
  - id: a
`))
	require.NoError(t, err)

	res := s.Validate(condition.New())
	assert.False(t, res.IsValid)
	assert.ElementsMatch(t, []condition.IssueCode{
		story.IssueDuplicateID,
		story.IssueDuplicateID,
		story.IssueUnknownScene,
		story.IssueUnknownScene,
		story.IssueUnknownChoice,
		condition.IssueMissingVariable,
	}, codes(res.Errors))

	for _, is := range res.Errors {
		if is.Code == condition.IssueMissingVariable {
			assert.Equal(t, "scenes[0].choices[1].when", is.Path)
		}
	}
	assert.Error(t, res.Err())
}

func TestValidate_InvalidProject(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []condition.IssueCode
	}{
		{
			name: "default out of range",
			yaml: `
variables:
  - {id: gold, type: number, default: 50, max: 10}
scenes:
  - id: a
`,
			want: []condition.IssueCode{story.IssueInvalidProject},
		},
		{
			name: "action on undefined variable",
			yaml: `
scenes:
  - id: a
    actions:
      - {type: toggle, var: nobody}
`,
			want: []condition.IssueCode{condition.IssueMissingVariable},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := story.Parse([]byte(tt.yaml))
			require.NoError(t, err)

			res := s.Validate(nil)
			assert.False(t, res.IsValid)
			assert.Equal(t, tt.want, codes(res.Errors))
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	res := (&story.Story{}).Validate(nil)
	assert.Equal(t, []condition.IssueCode{story.IssueEmptyStory}, codes(res.Errors))
}
