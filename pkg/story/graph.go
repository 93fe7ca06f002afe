package story

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
)

// GateID is the id of the branch condition generated for a gated choice.
func GateID(choiceID string) string {
	return "gate-" + choiceID
}

// Graph derives the layout input from the scene graph. Every choice with a
// target becomes an edge named after the choice. Scenes without outgoing
// choices are dead ends; scenes other than the start that nothing links to
// are orphans.
func (s *Story) Graph() ([]layout.Node, []layout.Edge) {
	start := s.StartScene()
	incoming := make(map[string]int)
	var edges []layout.Edge
	for _, sc := range s.Scenes {
		for _, ch := range sc.Choices {
			if ch.Target == "" {
				continue
			}
			edges = append(edges, layout.Edge{
				ID:     ch.ID,
				Source: sc.ID,
				Target: ch.Target,
				Weight: ch.Weight,
			})
			if ch.Target != sc.ID {
				incoming[ch.Target]++
			}
		}
	}

	nodes := make([]layout.Node, len(s.Scenes))
	for i, sc := range s.Scenes {
		outgoing := 0
		for _, ch := range sc.Choices {
			if ch.Target != "" {
				outgoing++
			}
		}
		nodes[i] = layout.Node{
			ID:         sc.ID,
			Width:      sc.Width,
			Height:     sc.Height,
			IsFirst:    sc.ID == start,
			IsDeadEnd:  outgoing == 0,
			IsOrphaned: sc.ID != start && incoming[sc.ID] == 0,
		}
	}
	return nodes, edges
}

// Project converts the story into the document a variables.Manager imports:
// its variables, one enabled branch condition per gated choice and every
// scene action.
func (s *Story) Project() domain.ProjectDocument {
	doc := domain.ProjectDocument{
		Variables:        make([]domain.Variable, 0, len(s.Variables)),
		Values:           domain.Values{},
		BranchConditions: []domain.BranchCondition{},
		SceneActions:     []domain.SceneAction{},
	}
	for _, v := range s.Variables {
		doc.Variables = append(doc.Variables, v.Clone())
	}
	for _, sc := range s.Scenes {
		for _, ch := range sc.Choices {
			if ch.Condition == nil {
				continue
			}
			doc.BranchConditions = append(doc.BranchConditions, domain.BranchCondition{
				ID:               GateID(ch.ID),
				ChoiceID:         ch.ID,
				Condition:        domain.CloneCondition(ch.Condition),
				FallbackChoiceID: ch.Fallback,
				Enabled:          true,
			})
		}
		for _, a := range sc.Actions {
			cp := a
			if a.Value != nil {
				v := a.Value.Clone()
				cp.Value = &v
			}
			if a.Condition != nil {
				cp.Condition = domain.CloneCondition(a.Condition)
			}
			doc.SceneActions = append(doc.SceneActions, cp)
		}
	}
	return doc
}
