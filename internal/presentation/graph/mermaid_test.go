package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/story"
)

func parse(t *testing.T, src string) *story.Story {
	t.Helper()
	s, err := story.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse story: %v", err)
	}
	return s
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name        string
		story       string
		opts        graph.Options
		contains    []string
		notContains []string
	}{
		{
			name: "Scene Shapes",
			story: `
scenes:
  - {id: intro, title: The Beginning, choices: [{id: go, to: middle}]}
  - {id: middle, choices: [{id: on, to: finale}]}
  - {id: finale}
`,
			contains: []string{
				"graph LR\n",
				`intro(("The Beginning"))`,
				`middle["middle"]`,
				`finale(["finale"])`,
				"intro --> middle",
			},
		},
		{
			name:  "Direction",
			story: "scenes: [{id: a}]",
			opts:  graph.Options{Direction: layout.BottomToTop},
			contains: []string{
				"graph BT\n",
			},
		},
		{
			name: "ID Sanitization",
			story: `
scenes:
  - {id: act1/scene.one, choices: [{id: x, to: hyphen-ated}]}
  - {id: hyphen-ated}
`,
			contains: []string{
				`act1_scene_one(("act1/scene.one"))`,
				"act1_scene_one --> hyphen_ated",
			},
		},
		{
			name: "Choice Text Escaping",
			story: `
scenes:
  - {id: a, choices: [{id: x, text: 'Say "yes"', to: b}]}
  - {id: b}
`,
			contains: []string{
				`a -- "Say 'yes'" --> b`,
			},
		},
		{
			name: "Gated Choice",
			story: `
variables:
  - {id: gold, name: Gold, type: number}
scenes:
  - id: a
    choices:
      - {id: buy, text: Buy, to: b, fallback: leave, when: {var: gold, op: greater_than, value: 5}}
      - {id: leave, to: b}
  - {id: b}
`,
			contains: []string{
				`a -. "Buy <br/> 🔒 Gold > 5 <br/> ↪ leave" .-> b`,
				"a --> b",
			},
		},
		{
			name: "Orphans",
			story: `
scenes:
  - {id: a}
  - {id: lost}
`,
			contains: []string{
				"classDef orphan",
				"class lost orphan;",
			},
			notContains: []string{
				"class a orphan;",
			},
		},
		{
			name: "Overlay",
			story: `
scenes:
  - {id: a, choices: [{id: x, to: b}]}
  - {id: b}
`,
			opts: graph.Options{Overlay: &graph.GraphOverlay{
				VisitedNodes: []string{"a", "b", "a"},
				CurrentNode:  "b",
			}},
			contains: []string{
				"classDef visited",
				"class a visited;",
				"class b current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(parse(t, tt.story), tt.opts)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnwanted substring: %v", got, unwanted)
				}
			}
		})
	}
}

func TestGenerateMermaid_VisitedOnce(t *testing.T) {
	s := parse(t, "scenes: [{id: a}]")
	got := graph.GenerateMermaid(s, graph.Options{Overlay: &graph.GraphOverlay{VisitedNodes: []string{"a", "a"}}})
	if n := strings.Count(got, "class a visited;"); n != 1 {
		t.Errorf("visited class applied %d times, want 1", n)
	}
}

func TestOverlayFromPlaythrough(t *testing.T) {
	p := domain.PlaythroughState{
		CurrentSceneID: "b",
		Path: []domain.PathState{
			{SceneID: "a", VisitCount: 2},
			{SceneID: "b", VisitCount: 1},
		},
	}
	overlay := graph.OverlayFromPlaythrough(p)
	if overlay.CurrentNode != "b" {
		t.Errorf("CurrentNode = %q, want b", overlay.CurrentNode)
	}
	if strings.Join(overlay.VisitedNodes, ",") != "a,b" {
		t.Errorf("VisitedNodes = %v, want [a b]", overlay.VisitedNodes)
	}
}
