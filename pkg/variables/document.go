package variables

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// Export returns the project document: definitions, explicit values,
// branch conditions and scene actions.
func (m *Manager) Export() domain.ProjectDocument {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := domain.ProjectDocument{
		Variables:        make([]domain.Variable, 0, len(m.order)),
		Values:           m.values.Clone(),
		BranchConditions: cloneBranches(m.branches),
		SceneActions:     make([]domain.SceneAction, 0, len(m.actions)),
	}
	for _, id := range m.order {
		doc.Variables = append(doc.Variables, m.vars[id].Clone())
	}
	for _, a := range m.actions {
		doc.SceneActions = append(doc.SceneActions, cloneAction(a))
	}
	return doc
}

// ExportState encodes the project document as indented JSON.
func (m *Manager) ExportState() ([]byte, error) {
	return json.MarshalIndent(m.Export(), "", "  ")
}

// ImportState decodes and imports a project document.
func (m *Manager) ImportState(data []byte) error {
	doc, err := domain.DecodeProject(data)
	if err != nil {
		m.logger.Error("project import failed", "err", err)
		return fmt.Errorf("decode project: %w", err)
	}
	return m.Import(*doc)
}

// Import replaces definitions, values, branch conditions and scene actions
// with the document's, and clears the history. The whole document is
// validated first: on any error nothing is assigned. Gates and actions that
// reference undefined variables are accepted with a warning, so whatever
// Export produced imports again. Snapshots, listeners
// and the active playthrough are kept. No notifications are sent.
func (m *Manager) Import(doc domain.ProjectDocument) error {
	staged, err := m.stage(doc)
	if err != nil {
		m.logger.Error("project import rejected", "err", err)
		return fmt.Errorf("import project: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	diff := domain.Diff(m.values, staged.values)
	m.vars = staged.vars
	m.order = staged.order
	m.values = staged.values
	m.branches = staged.branches
	m.actions = staged.actions
	m.history = nil
	m.computedWarned = make(map[string]bool)
	m.logger.Info("project imported",
		"variables", len(m.order),
		"values", len(m.values),
		"changed_values", diff.Keys(),
		"branch_conditions", len(m.branches),
		"scene_actions", len(m.actions))
	return nil
}

type stagedDocument struct {
	vars     map[string]domain.Variable
	order    []string
	values   domain.Values
	branches []domain.BranchCondition
	actions  []domain.SceneAction
}

// stage builds the new state without touching the manager.
func (m *Manager) stage(doc domain.ProjectDocument) (*stagedDocument, error) {
	var errs []error
	fail := func(key, format string, args ...any) {
		errs = append(errs, &schema.ValidationError{Key: key, Reason: fmt.Sprintf(format, args...)})
	}

	s := &stagedDocument{
		vars:   make(map[string]domain.Variable, len(doc.Variables)),
		values: make(domain.Values, len(doc.Values)),
	}

	types := make(schema.Schema, len(doc.Variables))
	for i, v := range doc.Variables {
		key := fmt.Sprintf("variables[%d]", i)
		def, err := normalizeDefinition(v)
		if err != nil {
			fail(key, "%v", err)
			continue
		}
		if _, dup := s.vars[def.ID]; dup {
			fail(key, "duplicate variable id %q", def.ID)
			continue
		}
		t, err := schema.ParseType(string(def.Type))
		if err != nil {
			fail(key, "%v", err)
			continue
		}
		types[def.ID] = t
		s.vars[def.ID] = def
		s.order = append(s.order, def.ID)
	}

	raw := make(map[string]any, len(doc.Values))
	for id, v := range doc.Values {
		raw[id] = v.Interface()
	}
	if err := schema.ValidatePartial(types, raw); err != nil {
		errs = append(errs, schema.ValidationErrors(err)...)
	} else {
		for id, v := range doc.Values {
			def := s.vars[id]
			if normalized, ok := v.As(def.Type); ok {
				v = normalized
			}
			if err := def.Check(v); err != nil {
				fail("state."+id, "%v", err)
				continue
			}
			if def.Computed {
				m.logger.Warn("ignoring stored value of computed variable", "variable_id", id)
				continue
			}
			s.values[id] = v.Clone()
		}
	}

	seen := make(map[string]bool)
	for i, b := range doc.BranchConditions {
		key := fmt.Sprintf("branchConditions[%d]", i)
		switch {
		case b.ChoiceID == "":
			fail(key, "choice id is required")
		case b.Condition == nil:
			fail(key, "condition is required")
		case b.ID != "" && seen[b.ID]:
			fail(key, "duplicate branch condition id %q", b.ID)
		default:
			if err := m.structural(key, b.Condition, s.vars); err != nil {
				fail(key, "%v", err)
				continue
			}
			if b.ID == "" {
				b.ID = m.newID()
			}
			seen[b.ID] = true
			b.Condition = domain.CloneCondition(b.Condition)
			s.branches = append(s.branches, b)
		}
	}

	for i, a := range doc.SceneActions {
		key := fmt.Sprintf("sceneActions[%d]", i)
		if err := checkActionShape(a); err != nil {
			fail(key, "%v", err)
			continue
		}
		if _, ok := s.vars[a.VariableID]; !ok {
			m.logger.Warn("imported scene action targets an undefined variable", "key", key, "variable_id", a.VariableID)
		}
		if a.Condition != nil {
			if err := m.structural(key+".condition", a.Condition, s.vars); err != nil {
				fail(key, "%v", err)
				continue
			}
		}
		if a.ID == "" {
			a.ID = m.newID()
		}
		s.actions = append(s.actions, cloneAction(a))
	}

	if len(errs) > 0 {
		return nil, &schema.AggregateError{Errors: errs}
	}
	return s, nil
}

// structural validates an imported condition. Only malformed trees are
// errors. Dangling references and type mismatches are logged and kept: a
// manager exports them itself after Remove, and they evaluate to false.
func (m *Manager) structural(key string, c domain.Condition, vars map[string]domain.Variable) error {
	res := m.engine.Validate(c, vars)
	var malformed condition.ValidationResult
	for _, issue := range res.Errors {
		if issue.Code == condition.IssueInvalidCondition {
			malformed.Errors = append(malformed.Errors, issue)
			continue
		}
		m.logger.Warn("imported condition will evaluate to false",
			"key", key, "code", issue.Code, "variable_id", issue.VariableID, "reason", issue.Message)
	}
	return malformed.Err()
}

// checkActionShape checks what an action needs regardless of the variables
// defined around it.
func checkActionShape(a domain.SceneAction) error {
	if a.SceneID == "" {
		return fmt.Errorf("scene id is required")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	switch a.Type {
	case domain.ActionSet, domain.ActionAppend, domain.ActionRemove:
		if a.Value == nil || a.Value.IsZero() {
			return fmt.Errorf("%s requires a value", a.Type)
		}
	}
	return nil
}

func checkAction(a domain.SceneAction, vars map[string]domain.Variable, eng *condition.Engine) error {
	if err := checkActionShape(a); err != nil {
		return err
	}
	if _, ok := vars[a.VariableID]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrVariableNotFound, a.VariableID)
	}
	if a.Condition != nil {
		if err := eng.Validate(a.Condition, vars).Err(); err != nil {
			return err
		}
	}
	return nil
}
