package story

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Story is an authored branching narrative: scenes linked by choices, plus
// the variables, gates and actions that drive its state.
type Story struct {
	Title     string
	Start     string
	Variables []domain.Variable
	Scenes    []Scene
}

// Scene is one node of the story graph.
type Scene struct {
	ID      string
	Title   string
	Text    string
	Width   float64
	Height  float64
	Choices []Choice
	Actions []domain.SceneAction
}

// Choice leads from its scene to Target. A non-nil Condition gates it.
type Choice struct {
	ID       string
	Text     string
	Target   string
	Weight   float64
	Fallback string

	Condition domain.Condition
}

// Load reads and parses a story file.
func Load(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML story document.
func Parse(data []byte) (*Story, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse story yaml: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty story document")
	}
	return decode(raw)
}

// StartScene returns the declared start scene, or the first scene.
func (s *Story) StartScene() string {
	if s.Start != "" {
		return s.Start
	}
	if len(s.Scenes) > 0 {
		return s.Scenes[0].ID
	}
	return ""
}

// Scene looks a scene up by id.
func (s *Story) Scene(id string) (Scene, bool) {
	for _, sc := range s.Scenes {
		if sc.ID == id {
			return sc, true
		}
	}
	return Scene{}, false
}

// Choice looks a choice up by id and returns the scene it belongs to.
func (s *Story) Choice(id string) (Choice, string, bool) {
	for _, sc := range s.Scenes {
		for _, ch := range sc.Choices {
			if ch.ID == id {
				return ch, sc.ID, true
			}
		}
	}
	return Choice{}, "", false
}

// ChoiceIDs lists the ids of the choices authored on a scene, in order.
func (sc Scene) ChoiceIDs() []string {
	ids := make([]string, len(sc.Choices))
	for i, ch := range sc.Choices {
		ids[i] = ch.ID
	}
	return ids
}
