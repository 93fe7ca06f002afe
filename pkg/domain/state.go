package domain

import (
	"encoding/json"
	"time"
)

// ChangeSource tags who caused a variable change.
type ChangeSource string

const (
	SourceUser      ChangeSource = "user"
	SourceCondition ChangeSource = "condition"
	SourceScript    ChangeSource = "script"
	SourceSystem    ChangeSource = "system"
)

// VariableChange is the audit record of one committed mutation.
type VariableChange struct {
	VariableID string       `json:"variableId"`
	OldValue   Value        `json:"oldValue"`
	NewValue   Value        `json:"newValue"`
	SceneID    string       `json:"sceneId,omitempty"`
	Source     ChangeSource `json:"source"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Values maps variable ids to live values.
type Values map[string]Value

// Clone deep-copies the map and every value in it.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val.Clone()
	}
	return out
}

// StateSnapshot is a labelled, independent copy of the live value map.
type StateSnapshot struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	SceneID   string    `json:"sceneId"`
	Timestamp time.Time `json:"timestamp"`
	Values    Values    `json:"values"`
}

// PathState records how a playthrough moved through one scene.
type PathState struct {
	SceneID    string    `json:"sceneId"`
	VisitCount int       `json:"visitCount"`
	LastVisit  time.Time `json:"lastVisit"`
	Choices    []string  `json:"choicesMade"`
}

// PlaythroughState tracks one simulated traversal of the story.
type PlaythroughState struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	StartedAt      time.Time   `json:"startTime"`
	CurrentSceneID string      `json:"currentSceneId"`
	Values         Values      `json:"variables"`
	Path           []PathState `json:"path"`
	TotalChoices   int         `json:"totalChoices"`
}

// Clone deep-copies the playthrough.
func (p *PlaythroughState) Clone() *PlaythroughState {
	if p == nil {
		return nil
	}
	c := *p
	c.Values = p.Values.Clone()
	c.Path = make([]PathState, len(p.Path))
	for i, ps := range p.Path {
		ps.Choices = append([]string{}, ps.Choices...)
		c.Path[i] = ps
	}
	return &c
}

// Visited returns the scene ids of the path in first-visit order.
func (p *PlaythroughState) Visited() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, len(p.Path))
	for i, ps := range p.Path {
		ids[i] = ps.SceneID
	}
	return ids
}

// ProjectDocument is the persisted form of all variable and branching data.
type ProjectDocument struct {
	Variables        []Variable        `json:"variables"`
	Values           Values            `json:"state"`
	BranchConditions []BranchCondition `json:"branchConditions"`
	SceneActions     []SceneAction     `json:"sceneActions"`
}

// Clone deep-copies the document. Nil collections stay nil.
func (d *ProjectDocument) Clone() *ProjectDocument {
	if d == nil {
		return nil
	}
	c := &ProjectDocument{Values: d.Values.Clone()}
	if d.Variables != nil {
		c.Variables = make([]Variable, len(d.Variables))
		for i, v := range d.Variables {
			c.Variables[i] = v.Clone()
		}
	}
	if d.BranchConditions != nil {
		c.BranchConditions = make([]BranchCondition, len(d.BranchConditions))
		for i, b := range d.BranchConditions {
			b.Condition = CloneCondition(b.Condition)
			c.BranchConditions[i] = b
		}
	}
	if d.SceneActions != nil {
		c.SceneActions = make([]SceneAction, len(d.SceneActions))
		for i, a := range d.SceneActions {
			if a.Value != nil {
				v := a.Value.Clone()
				a.Value = &v
			}
			a.Condition = CloneCondition(a.Condition)
			c.SceneActions[i] = a
		}
	}
	return c
}

// DecodeProject parses a project document.
func DecodeProject(data []byte) (*ProjectDocument, error) {
	var doc ProjectDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
