package variables_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populated(t *testing.T) *variables.Manager {
	t.Helper()
	m := newManager(t)
	require.NoError(t, m.Register(domain.Variable{ID: "rolls", Type: domain.KindNumberList}))
	require.True(t, m.SetValue("trust", domain.Number(40), domain.SourceUser, ""))
	require.True(t, m.SetValue("inventory", domain.Strings("key", "map"), domain.SourceUser, ""))

	_, err := m.AddBranchCondition(domain.BranchCondition{
		ID: "gate-confide", ChoiceID: "confide", Condition: trustGate(),
		FallbackChoiceID: "leave", Enabled: true,
	})
	require.NoError(t, err)

	coin := domain.String("coin")
	_, err = m.AddSceneAction(domain.SceneAction{
		ID: "loot", SceneID: "cave", Type: domain.ActionAppend, VariableID: "inventory", Value: &coin,
		Condition: domain.Check("flag_betrayed", domain.OpIsFalse),
	})
	require.NoError(t, err)
	return m
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := populated(t)
	data, err := src.ExportState()
	require.NoError(t, err)

	dst := variables.New(nil)
	require.NoError(t, dst.ImportState(data))

	again, err := dst.ExportState()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	assert.Equal(t, domain.Number(40), value(t, dst, "trust"))
	assert.Equal(t, domain.Numbers(), value(t, dst, "rolls"))
	assert.True(t, dst.IsChoiceAvailable("confide"))
	assert.Equal(t, 1, dst.ExecuteSceneActions("cave"))
	assert.Equal(t, domain.Strings("key", "map", "coin"), value(t, dst, "inventory"))
}

func roundTrip(t *testing.T, src *variables.Manager) *variables.Manager {
	t.Helper()
	data, err := src.ExportState()
	require.NoError(t, err)

	dst := variables.New(nil)
	require.NoError(t, dst.ImportState(data))

	again, err := dst.ExportState()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
	return dst
}

func TestExportImport_EmptiedList(t *testing.T) {
	src := newManager(t)
	require.True(t, src.AppendToArray("inventory", domain.String("key"), domain.SourceUser))
	require.True(t, src.RemoveFromArray("inventory", domain.String("key"), domain.SourceUser))

	data, err := src.ExportState()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")

	dst := roundTrip(t, src)
	assert.Equal(t, domain.Strings(), value(t, dst, "inventory"))
	assert.True(t, dst.AppendToArray("inventory", domain.String("map"), domain.SourceUser))
}

func TestExportImport_AfterRemove(t *testing.T) {
	src := populated(t)
	require.True(t, src.Remove("flag_betrayed"))
	require.True(t, src.Remove("inventory"))

	dst := roundTrip(t, src)
	require.Len(t, dst.BranchConditions(), 1)
	assert.False(t, dst.IsChoiceAvailable("confide"))
	assert.Len(t, dst.SceneActions("cave"), 1)
	assert.Zero(t, dst.ExecuteSceneActions("cave"))
}

func TestExportImport_GateOnUndefinedVariable(t *testing.T) {
	src := newManager(t)
	_, err := src.AddBranchCondition(domain.BranchCondition{
		ID: "gate-haunt", ChoiceID: "haunt", Condition: domain.Check("ghost", domain.OpIsTrue), Enabled: true,
	})
	require.NoError(t, err)
	require.False(t, src.IsChoiceAvailable("haunt"))

	dst := roundTrip(t, src)
	assert.False(t, dst.IsChoiceAvailable("haunt"))
}

func TestExport_DocumentShape(t *testing.T) {
	data, err := populated(t).ExportState()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.ElementsMatch(t, []string{"variables", "state", "branchConditions", "sceneActions"}, keys(raw))

	var state map[string]any
	require.NoError(t, json.Unmarshal(raw["state"], &state))
	assert.Equal(t, map[string]any{"trust": 40.0, "inventory": []any{"key", "map"}}, state)
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestImport_AllOrNothing(t *testing.T) {
	m := populated(t)
	before := m.Export()
	historyBefore := m.History()

	doc := domain.ProjectDocument{
		Variables: []domain.Variable{
			{ID: "hp", Type: domain.KindNumber, Default: domain.Number(5)},
			{ID: "hp", Type: domain.KindNumber},
			{ID: "bad", Type: "object"},
		},
		Values: domain.Values{
			"hp":    domain.String("full"),
			"ghost": domain.Number(1),
		},
		BranchConditions: []domain.BranchCondition{
			{ChoiceID: "run", Condition: domain.Not(nil), Enabled: true},
		},
		SceneActions: []domain.SceneAction{
			{SceneID: "s", Type: "explode", VariableID: "hp"},
		},
	}

	err := m.Import(doc)
	require.Error(t, err)
	assert.Len(t, schema.ValidationErrors(err), 6)

	assert.Equal(t, before, m.Export())
	assert.Equal(t, historyBefore, m.History())
}

func TestImport_ConstraintViolationRejected(t *testing.T) {
	m := variables.New(nil)
	err := m.Import(domain.ProjectDocument{
		Variables: []domain.Variable{
			{ID: "trust", Type: domain.KindNumber, Constraints: &domain.Constraints{Max: ptr(100)}},
		},
		Values: domain.Values{"trust": domain.Number(500)},
	})
	require.Error(t, err)
	assert.Empty(t, m.Variables())
}

func TestImport_ClearsHistoryKeepsListeners(t *testing.T) {
	m := populated(t)
	require.NotEmpty(t, m.History())
	calls := 0
	m.Subscribe("trust", func(domain.VariableChange) { calls++ })

	require.NoError(t, m.Import(domain.ProjectDocument{
		Variables: []domain.Variable{{ID: "trust", Type: domain.KindNumber}},
	}))
	assert.Empty(t, m.History())
	assert.Equal(t, 0, calls)
	assert.Empty(t, m.BranchConditions())

	require.True(t, m.SetValue("trust", domain.Number(1), domain.SourceUser, ""))
	assert.Equal(t, 1, calls)
}

func TestImportState_MalformedJSON(t *testing.T) {
	m := populated(t)
	before := m.Export()

	err := m.ImportState([]byte(`{"variables": [`))
	require.Error(t, err)
	err = m.ImportState([]byte(`{"branchConditions": [{"choiceId": "x", "condition": {"type": "xor"}}]}`))
	require.ErrorIs(t, err, domain.ErrInvalidCondition)

	assert.Equal(t, before, m.Export())
}

func TestImportState_NormalizesEmptyLists(t *testing.T) {
	m := variables.New(nil)
	require.NoError(t, m.ImportState([]byte(`{
		"variables": [{"id": "rolls", "name": "Rolls", "type": "number[]", "defaultValue": [], "scope": "global"}],
		"state": {"rolls": []},
		"branchConditions": [],
		"sceneActions": []
	}`)))

	v := value(t, m, "rolls")
	assert.Equal(t, domain.KindNumberList, v.Kind())
	assert.True(t, m.AppendToArray("rolls", domain.Number(6), domain.SourceUser))
}
