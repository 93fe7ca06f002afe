package domain

import (
	"encoding/json"
	"fmt"
)

// BranchCondition gates whether an authored choice is currently selectable.
type BranchCondition struct {
	ID               string    `json:"id"`
	ChoiceID         string    `json:"choiceId"`
	Condition        Condition `json:"condition"`
	FallbackChoiceID string    `json:"fallbackChoiceId,omitempty"`
	Enabled          bool      `json:"enabled"`
}

// UnmarshalJSON decodes the condition tree through DecodeCondition.
func (b *BranchCondition) UnmarshalJSON(data []byte) error {
	type alias BranchCondition
	aux := struct {
		*alias
		Condition json.RawMessage `json:"condition"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c, err := DecodeCondition(aux.Condition)
	if err != nil {
		return fmt.Errorf("branch condition %q: %w", b.ID, err)
	}
	b.Condition = c
	return nil
}

// ActionType is the mutation a scene action performs.
type ActionType string

const (
	ActionSet       ActionType = "set"
	ActionIncrement ActionType = "increment"
	ActionDecrement ActionType = "decrement"
	ActionToggle    ActionType = "toggle"
	ActionAppend    ActionType = "append"
	ActionRemove    ActionType = "remove"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionSet, ActionIncrement, ActionDecrement, ActionToggle, ActionAppend, ActionRemove:
		return true
	}
	return false
}

// SceneAction is a state mutation that fires when a scene is entered.
type SceneAction struct {
	ID         string     `json:"id"`
	SceneID    string     `json:"sceneId"`
	Type       ActionType `json:"type"`
	VariableID string     `json:"variableId"`
	Value      *Value     `json:"value,omitempty"`
	// Condition optionally guards the action; a nil guard always passes.
	Condition Condition `json:"condition,omitempty"`
}

// UnmarshalJSON decodes the guard through DecodeCondition.
func (a *SceneAction) UnmarshalJSON(data []byte) error {
	type alias SceneAction
	aux := struct {
		*alias
		Condition json.RawMessage `json:"condition"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c, err := DecodeCondition(aux.Condition)
	if err != nil {
		return fmt.Errorf("scene action %q: %w", a.ID, err)
	}
	a.Condition = c
	return nil
}
