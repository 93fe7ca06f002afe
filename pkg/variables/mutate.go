package variables

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// SetValue commits value to variable id. It returns false, without side
// effects, when the variable is undefined or computed, when the value has
// the wrong type or when it violates a constraint. Setting the current
// value again succeeds without recording history or notifying.
func (m *Manager) SetValue(id string, value domain.Value, source domain.ChangeSource, sceneID string) bool {
	m.mu.Lock()
	ok := m.set(id, value, source, sceneID)
	m.mu.Unlock()
	m.dispatch()
	return ok
}

// set is the single mutation path. m.mu must be held.
func (m *Manager) set(id string, value domain.Value, source domain.ChangeSource, sceneID string) bool {
	def, ok := m.vars[id]
	if !ok {
		m.logger.Debug("set rejected: unknown variable", "variable_id", id)
		return false
	}
	if def.Computed {
		m.logger.Debug("set rejected: computed variable", "variable_id", id)
		return false
	}
	if normalized, ok := value.As(def.Type); ok {
		value = normalized
	}
	if err := def.Check(value); err != nil {
		m.logger.Debug("set rejected", "variable_id", id, "err", err)
		return false
	}

	old, _ := m.current(id)
	if old.Equal(value) {
		return true
	}

	value = value.Clone()
	m.values[id] = value
	change := domain.VariableChange{
		VariableID: id,
		OldValue:   old,
		NewValue:   value.Clone(),
		SceneID:    sceneID,
		Source:     source,
		Timestamp:  m.now(),
	}
	m.record(change)
	m.enqueue(notice{change: &change})
	return true
}

// record appends to the bounded history, evicting the oldest entries.
// m.mu must be held.
func (m *Manager) record(change domain.VariableChange) {
	m.history = append(m.history, change)
	if over := len(m.history) - m.historyLimit; over > 0 {
		clear(m.history[:over])
		m.history = append(m.history[:0], m.history[over:]...)
	}
}

// Increment adds amount to a numeric variable.
func (m *Manager) Increment(id string, amount float64, source domain.ChangeSource) bool {
	m.mu.Lock()
	ok := m.add(id, amount, source, "")
	m.mu.Unlock()
	m.dispatch()
	return ok
}

// Decrement subtracts amount from a numeric variable.
func (m *Manager) Decrement(id string, amount float64, source domain.ChangeSource) bool {
	return m.Increment(id, -amount, source)
}

func (m *Manager) add(id string, amount float64, source domain.ChangeSource, sceneID string) bool {
	cur, ok := m.current(id)
	if !ok || cur.Kind() != domain.KindNumber {
		return false
	}
	return m.set(id, domain.Number(cur.Num()+amount), source, sceneID)
}

// Toggle flips a boolean variable.
func (m *Manager) Toggle(id string, source domain.ChangeSource) bool {
	m.mu.Lock()
	ok := m.toggle(id, source, "")
	m.mu.Unlock()
	m.dispatch()
	return ok
}

func (m *Manager) toggle(id string, source domain.ChangeSource, sceneID string) bool {
	cur, ok := m.current(id)
	if !ok || cur.Kind() != domain.KindBoolean {
		return false
	}
	return m.set(id, domain.Bool(!cur.Bool()), source, sceneID)
}

// AppendToArray appends item to a list variable.
func (m *Manager) AppendToArray(id string, item domain.Value, source domain.ChangeSource) bool {
	m.mu.Lock()
	ok := m.appendItem(id, item, source, "")
	m.mu.Unlock()
	m.dispatch()
	return ok
}

func (m *Manager) appendItem(id string, item domain.Value, source domain.ChangeSource, sceneID string) bool {
	cur, ok := m.current(id)
	if !ok || !cur.Kind().IsList() {
		return false
	}
	next, ok := cur.With(item)
	if !ok {
		return false
	}
	return m.set(id, next, source, sceneID)
}

// RemoveFromArray removes every occurrence of item from a list variable.
func (m *Manager) RemoveFromArray(id string, item domain.Value, source domain.ChangeSource) bool {
	m.mu.Lock()
	ok := m.removeItem(id, item, source, "")
	m.mu.Unlock()
	m.dispatch()
	return ok
}

func (m *Manager) removeItem(id string, item domain.Value, source domain.ChangeSource, sceneID string) bool {
	cur, ok := m.current(id)
	if !ok || !cur.Kind().IsList() {
		return false
	}
	next, ok := cur.Without(item)
	if !ok {
		return false
	}
	return m.set(id, next, source, sceneID)
}

// Reset restores the default of one variable through the normal mutation
// path, so it is recorded and notified.
func (m *Manager) Reset(id string) bool {
	m.mu.Lock()
	def, ok := m.vars[id]
	if ok {
		ok = m.set(id, def.Default, domain.SourceSystem, "")
	}
	m.mu.Unlock()
	m.dispatch()
	return ok
}

// ResetAll restores every default directly and clears the history. It does
// not notify.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetAll()
}

func (m *Manager) resetAll() {
	m.values = make(domain.Values)
	m.history = nil
}

// History returns a copy of the change history, oldest first.
func (m *Manager) History() []domain.VariableChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.VariableChange, len(m.history))
	for i, c := range m.history {
		c.OldValue = c.OldValue.Clone()
		c.NewValue = c.NewValue.Clone()
		out[i] = c
	}
	return out
}

// ClearHistory drops every history entry.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}

// Undo pops the most recent change and writes its old value back without
// constraint checks, then notifies with old and new swapped. It returns
// false when the history is empty or the variable no longer exists; the
// entry is consumed either way.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	ok := m.undo()
	m.mu.Unlock()
	m.dispatch()
	return ok
}

func (m *Manager) undo() bool {
	if len(m.history) == 0 {
		return false
	}
	last := m.history[len(m.history)-1]
	m.history[len(m.history)-1] = domain.VariableChange{}
	m.history = m.history[:len(m.history)-1]

	if _, ok := m.vars[last.VariableID]; !ok {
		m.logger.Debug("undo skipped: variable removed", "variable_id", last.VariableID)
		return false
	}

	current, _ := m.current(last.VariableID)
	m.values[last.VariableID] = last.OldValue.Clone()
	m.enqueue(notice{change: &domain.VariableChange{
		VariableID: last.VariableID,
		OldValue:   current,
		NewValue:   last.OldValue.Clone(),
		SceneID:    last.SceneID,
		Source:     domain.SourceSystem,
		Timestamp:  m.now(),
	}})
	return true
}

// apply runs one scene action. m.mu must be held.
func (m *Manager) apply(a domain.SceneAction) bool {
	var value domain.Value
	if a.Value != nil {
		value = *a.Value
	}
	const source = domain.SourceScript
	switch a.Type {
	case domain.ActionSet:
		return m.set(a.VariableID, value, source, a.SceneID)
	case domain.ActionIncrement, domain.ActionDecrement:
		amount := 1.0
		if value.Kind() == domain.KindNumber {
			amount = value.Num()
		}
		if a.Type == domain.ActionDecrement {
			amount = -amount
		}
		return m.add(a.VariableID, amount, source, a.SceneID)
	case domain.ActionToggle:
		return m.toggle(a.VariableID, source, a.SceneID)
	case domain.ActionAppend:
		return m.appendItem(a.VariableID, value, source, a.SceneID)
	case domain.ActionRemove:
		return m.removeItem(a.VariableID, value, source, a.SceneID)
	}
	return false
}
