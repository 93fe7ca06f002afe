package story

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

type storyMetadata struct {
	Title     string          `mapstructure:"title"`
	Start     string          `mapstructure:"start"`
	Variables []variableEntry `mapstructure:"variables"`
	Scenes    []sceneEntry    `mapstructure:"scenes"`
}

type variableEntry struct {
	ID          string   `mapstructure:"id"`
	Name        string   `mapstructure:"name"`
	Type        string   `mapstructure:"type"`
	Default     any      `mapstructure:"default"`
	Scope       string   `mapstructure:"scope"`
	Scene       string   `mapstructure:"scene"`
	Character   string   `mapstructure:"character"`
	Description string   `mapstructure:"description"`
	Min         *float64 `mapstructure:"min"`
	Max         *float64 `mapstructure:"max"`
	Pattern     string   `mapstructure:"pattern"`
	Allowed     []any    `mapstructure:"allowed"`
	Computed    string   `mapstructure:"computed"`
}

type sceneEntry struct {
	ID      string        `mapstructure:"id"`
	Title   string        `mapstructure:"title"`
	Text    string        `mapstructure:"text"`
	Width   float64       `mapstructure:"width"`
	Height  float64       `mapstructure:"height"`
	Choices []choiceEntry `mapstructure:"choices"`
	Actions []actionEntry `mapstructure:"actions"`
}

type choiceEntry struct {
	ID       string  `mapstructure:"id"`
	Text     string  `mapstructure:"text"`
	To       string  `mapstructure:"to"`
	Weight   float64 `mapstructure:"weight"`
	Fallback string  `mapstructure:"fallback"`
	When     any     `mapstructure:"when"`
}

type actionEntry struct {
	ID    string `mapstructure:"id"`
	Type  string `mapstructure:"type"`
	Var   string `mapstructure:"var"`
	Value any    `mapstructure:"value"`
	When  any    `mapstructure:"when"`
}

func decode(raw map[string]any) (*Story, error) {
	var meta storyMetadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &meta,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}

	s := &Story{Title: meta.Title, Start: meta.Start}
	for i, ve := range meta.Variables {
		v, err := ve.variable()
		if err != nil {
			return nil, fmt.Errorf("variables[%d]: %w", i, err)
		}
		s.Variables = append(s.Variables, v)
	}
	for i, se := range meta.Scenes {
		sc, err := se.scene()
		if err != nil {
			return nil, fmt.Errorf("scenes[%d]: %w", i, err)
		}
		s.Scenes = append(s.Scenes, sc)
	}
	return s, nil
}

func (e variableEntry) variable() (domain.Variable, error) {
	v := domain.Variable{
		ID:          e.ID,
		Name:        e.Name,
		Type:        domain.Kind(e.Type),
		Scope:       domain.Scope(e.Scope),
		SceneID:     e.Scene,
		CharacterID: e.Character,
		Description: e.Description,
		Computed:    e.Computed != "",
		Expression:  e.Computed,
	}
	if e.Default != nil {
		def, err := domain.ValueOf(e.Default)
		if err != nil {
			return v, fmt.Errorf("variable %q default: %w", e.ID, err)
		}
		if normalized, ok := def.As(v.Type); ok {
			def = normalized
		}
		v.Default = def
	}
	if e.Min != nil || e.Max != nil || e.Pattern != "" || len(e.Allowed) > 0 {
		c := &domain.Constraints{Min: e.Min, Max: e.Max, Pattern: e.Pattern}
		for _, a := range e.Allowed {
			av, err := domain.ValueOf(a)
			if err != nil {
				return v, fmt.Errorf("variable %q allowed value: %w", e.ID, err)
			}
			c.AllowedValues = append(c.AllowedValues, av)
		}
		v.Constraints = c
	}
	return v, nil
}

func (e sceneEntry) scene() (Scene, error) {
	sc := Scene{ID: e.ID, Title: e.Title, Text: e.Text, Width: e.Width, Height: e.Height}
	for i, ce := range e.Choices {
		cond, err := decodeCondition(ce.When)
		if err != nil {
			return sc, fmt.Errorf("scene %q choices[%d].when: %w", e.ID, i, err)
		}
		sc.Choices = append(sc.Choices, Choice{
			ID:        ce.ID,
			Text:      ce.Text,
			Target:    ce.To,
			Weight:    ce.Weight,
			Fallback:  ce.Fallback,
			Condition: cond,
		})
	}
	for i, ae := range e.Actions {
		a := domain.SceneAction{
			ID:         ae.ID,
			SceneID:    e.ID,
			Type:       domain.ActionType(ae.Type),
			VariableID: ae.Var,
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("%s-action-%d", e.ID, i+1)
		}
		if ae.Value != nil {
			val, err := domain.ValueOf(ae.Value)
			if err != nil {
				return sc, fmt.Errorf("scene %q actions[%d].value: %w", e.ID, i, err)
			}
			a.Value = &val
		}
		cond, err := decodeCondition(ae.When)
		if err != nil {
			return sc, fmt.Errorf("scene %q actions[%d].when: %w", e.ID, i, err)
		}
		a.Condition = cond
		sc.Actions = append(sc.Actions, a)
	}
	return sc, nil
}

type simpleEntry struct {
	Var   string `mapstructure:"var"`
	Op    string `mapstructure:"op"`
	Value any    `mapstructure:"value"`
}

// decodeCondition accepts the authoring shorthand:
//
//	when: flag_met                                  # is_true
//	when: {var: trust, op: greater_equal, value: 30}
//	when: {all: [...]} / {any: [...]} / {not: {...}}
//
// and the exported JSON form with a "type" discriminant.
func decodeCondition(raw any) (domain.Condition, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, fmt.Errorf("%w: empty variable reference", domain.ErrInvalidCondition)
		}
		return domain.Check(t, domain.OpIsTrue), nil
	case map[string]any:
		return decodeConditionMap(t)
	}
	return nil, fmt.Errorf("%w: unsupported condition %T", domain.ErrInvalidCondition, raw)
}

func decodeConditionMap(m map[string]any) (domain.Condition, error) {
	if _, ok := m["type"]; ok {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCondition, err)
		}
		return domain.DecodeCondition(data)
	}
	if len(m) == 1 {
		for key, inner := range m {
			switch key {
			case "all", "any":
				items, ok := inner.([]any)
				if !ok {
					return nil, fmt.Errorf("%w: %q expects a list", domain.ErrInvalidCondition, key)
				}
				children := make([]domain.Condition, 0, len(items))
				for i, item := range items {
					c, err := decodeCondition(item)
					if err != nil {
						return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
					}
					if c == nil {
						return nil, fmt.Errorf("%w: %s[%d] is empty", domain.ErrInvalidCondition, key, i)
					}
					children = append(children, c)
				}
				if key == "all" {
					return domain.And(children...), nil
				}
				return domain.Or(children...), nil
			case "not":
				child, err := decodeCondition(inner)
				if err != nil {
					return nil, fmt.Errorf("not: %w", err)
				}
				if child == nil {
					return nil, fmt.Errorf("%w: not without a condition", domain.ErrInvalidCondition)
				}
				return domain.Not(child), nil
			}
		}
	}

	var se simpleEntry
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &se, ErrorUnused: true})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCondition, err)
	}
	if se.Var == "" {
		return nil, fmt.Errorf("%w: missing var", domain.ErrInvalidCondition)
	}
	op := domain.Operator(se.Op)
	if op == "" {
		op = domain.OpIsTrue
	}
	if se.Value == nil {
		return domain.Check(se.Var, op), nil
	}
	val, err := domain.ValueOf(se.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCondition, err)
	}
	return domain.Compare(se.Var, op, val), nil
}
