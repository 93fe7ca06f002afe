package variables

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
)

// EvaluateCondition evaluates c against the live values. A failed
// evaluation, such as a reference to an undefined variable, is false.
func (m *Manager) EvaluateCondition(c domain.Condition) bool {
	res := m.Explain(c)
	return res.Success && res.Result
}

// Explain evaluates c and returns the full result including the trace.
func (m *Manager) Explain(c domain.Condition) condition.Result {
	m.mu.Lock()
	res := m.evaluate(c)
	m.mu.Unlock()
	m.dispatch()
	return res
}

// evaluate runs the engine and queues the evaluation hook. m.mu must be held.
func (m *Manager) evaluate(c domain.Condition) condition.Result {
	res := m.engine.Evaluate(c, m.vars, m.evalState())
	if !res.Success {
		m.logger.Warn("condition evaluation failed; treating as false", "err", res.Err)
	}
	m.enqueue(notice{eval: &domain.EvaluationEvent{Condition: c, Result: res.Success && res.Result, Err: res.Err}})
	return res
}

// Validate checks c against the registered definitions.
func (m *Manager) Validate(c domain.Condition) condition.ValidationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Validate(c, m.vars)
}

// --- Branch conditions ---

// AddBranchCondition registers a gate for a choice and returns its id. An
// empty id is generated; an existing id is replaced.
func (m *Manager) AddBranchCondition(b domain.BranchCondition) (string, error) {
	if b.ChoiceID == "" {
		return "", fmt.Errorf("%w: branch condition without choice id", domain.ErrInvalidCondition)
	}
	if b.Condition == nil {
		return "", fmt.Errorf("%w: branch condition for %q has no condition", domain.ErrInvalidCondition, b.ChoiceID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = m.newID()
	}
	b.Condition = domain.CloneCondition(b.Condition)
	for i, existing := range m.branches {
		if existing.ID == b.ID {
			m.branches[i] = b
			return b.ID, nil
		}
	}
	m.branches = append(m.branches, b)
	return b.ID, nil
}

// RemoveBranchCondition deletes a gate by id.
func (m *Manager) RemoveBranchCondition(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.branches {
		if b.ID == id {
			m.branches = append(m.branches[:i], m.branches[i+1:]...)
			return true
		}
	}
	return false
}

// BranchConditions returns copies of every gate in registration order.
func (m *Manager) BranchConditions() []domain.BranchCondition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneBranches(m.branches)
}

func cloneBranches(in []domain.BranchCondition) []domain.BranchCondition {
	out := make([]domain.BranchCondition, len(in))
	for i, b := range in {
		b.Condition = domain.CloneCondition(b.Condition)
		out[i] = b
	}
	return out
}

// IsChoiceAvailable reports whether a choice may be selected. A choice with
// no enabled gate is always available; otherwise every enabled gate must
// evaluate true.
func (m *Manager) IsChoiceAvailable(choiceID string) bool {
	m.mu.Lock()
	ok, _ := m.choiceAvailable(choiceID)
	m.mu.Unlock()
	m.dispatch()
	return ok
}

// choiceAvailable also returns the first failing gate. m.mu must be held.
func (m *Manager) choiceAvailable(choiceID string) (bool, *domain.BranchCondition) {
	for i := range m.branches {
		b := &m.branches[i]
		if b.ChoiceID != choiceID || !b.Enabled {
			continue
		}
		res := m.evaluate(b.Condition)
		if !res.Success || !res.Result {
			return false, b
		}
	}
	return true, nil
}

// AvailableChoices filters ids through IsChoiceAvailable, preserving order.
func (m *Manager) AvailableChoices(ids []string) []string {
	m.mu.Lock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if ok, _ := m.choiceAvailable(id); ok {
			out = append(out, id)
		}
	}
	m.mu.Unlock()
	m.dispatch()
	return out
}

// FallbackChoice returns the fallback configured on the first gate that
// blocks choiceID. It returns false when the choice is available or the
// blocking gate has no fallback.
func (m *Manager) FallbackChoice(choiceID string) (string, bool) {
	m.mu.Lock()
	ok, gate := m.choiceAvailable(choiceID)
	var fallback string
	if !ok {
		fallback = gate.FallbackChoiceID
	}
	m.mu.Unlock()
	m.dispatch()
	return fallback, fallback != ""
}

// --- Scene actions ---

// AddSceneAction registers a mutation that fires when its scene is entered
// and returns its id. Actions run in registration order.
func (m *Manager) AddSceneAction(a domain.SceneAction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkAction(a, m.vars, m.engine); err != nil {
		return "", fmt.Errorf("scene action for %q: %w", a.SceneID, err)
	}
	if a.ID == "" {
		a.ID = m.newID()
	}
	m.actions = append(m.actions, cloneAction(a))
	return a.ID, nil
}

func cloneAction(a domain.SceneAction) domain.SceneAction {
	if a.Value != nil {
		v := a.Value.Clone()
		a.Value = &v
	}
	a.Condition = domain.CloneCondition(a.Condition)
	return a
}

// RemoveSceneAction deletes an action by id.
func (m *Manager) RemoveSceneAction(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.actions {
		if a.ID == id {
			m.actions = append(m.actions[:i], m.actions[i+1:]...)
			return true
		}
	}
	return false
}

// SceneActions returns the actions of one scene, or of every scene when
// sceneID is empty.
func (m *Manager) SceneActions(sceneID string) []domain.SceneAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SceneAction
	for _, a := range m.actions {
		if sceneID == "" || a.SceneID == sceneID {
			out = append(out, cloneAction(a))
		}
	}
	return out
}

// ExecuteSceneActions runs the actions of a scene in registration order,
// skipping those whose guard is false. Every mutation is tagged with
// source script. It returns how many actions changed or confirmed state.
func (m *Manager) ExecuteSceneActions(sceneID string) int {
	m.mu.Lock()
	n := m.executeSceneActions(sceneID)
	m.mu.Unlock()
	m.dispatch()
	return n
}

func (m *Manager) executeSceneActions(sceneID string) int {
	executed := 0
	for _, a := range m.actions {
		if a.SceneID != sceneID {
			continue
		}
		if a.Condition != nil {
			res := m.evaluate(a.Condition)
			if !res.Success || !res.Result {
				continue
			}
		}
		if m.apply(a) {
			executed++
		} else {
			m.logger.Debug("scene action rejected", "action_id", a.ID, "scene_id", sceneID, "variable_id", a.VariableID)
		}
	}
	return executed
}
