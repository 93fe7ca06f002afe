package variables_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshots(t *testing.T) {
	m := newManager(t)
	require.True(t, m.SetValue("inventory", domain.Strings("key"), domain.SourceUser, ""))
	require.True(t, m.SetValue("gold", domain.Number(20), domain.SourceUser, ""))

	snap := m.CreateSnapshot("cave", "")
	assert.Equal(t, "Snapshot 1", snap.Label)
	assert.Equal(t, "cave", snap.SceneID)
	assert.Equal(t, epoch, snap.Timestamp)
	named := m.CreateSnapshot("cave", "before fight")
	assert.Equal(t, "before fight", named.Label)

	require.True(t, m.AppendToArray("inventory", domain.String("map"), domain.SourceUser))
	require.True(t, m.SetValue("gold", domain.Number(0), domain.SourceUser, ""))
	historyBefore := len(m.History())

	calls := 0
	m.SubscribeAll(func(domain.VariableChange) { calls++ })

	require.True(t, m.RestoreSnapshot(snap.ID))
	assert.Equal(t, domain.Strings("key"), value(t, m, "inventory"))
	assert.Equal(t, domain.Number(20), value(t, m, "gold"))
	assert.Equal(t, 0, calls, "restore does not notify")
	assert.Len(t, m.History(), historyBefore, "restore does not record history")

	// Mutating after a restore leaves the stored snapshot intact.
	require.True(t, m.AppendToArray("inventory", domain.String("torch"), domain.SourceUser))
	require.True(t, m.RestoreSnapshot(snap.ID))
	assert.Equal(t, domain.Strings("key"), value(t, m, "inventory"))

	assert.False(t, m.RestoreSnapshot("missing"))
	assert.Len(t, m.Snapshots(), 2)
	assert.True(t, m.DeleteSnapshot(named.ID))
	assert.False(t, m.DeleteSnapshot(named.ID))
	assert.Len(t, m.Snapshots(), 1)
}

func TestRestoreSnapshot_ReportsDiff(t *testing.T) {
	var events []domain.RestoreEvent
	m := newManager(t, variables.WithHooks(domain.Hooks{
		OnRestore: func(e domain.RestoreEvent) { events = append(events, e) },
	}))
	require.True(t, m.SetValue("gold", domain.Number(20), domain.SourceUser, ""))
	snap := m.CreateSnapshot("cave", "entrance")

	require.True(t, m.SetValue("gold", domain.Number(0), domain.SourceUser, ""))
	require.True(t, m.AppendToArray("inventory", domain.String("map"), domain.SourceUser))

	require.True(t, m.RestoreSnapshot(snap.ID))
	require.True(t, m.RestoreSnapshot(snap.ID))

	require.Len(t, events, 2)
	assert.Equal(t, snap.ID, events[0].SnapshotID)
	assert.Equal(t, "entrance", events[0].Label)
	require.NotNil(t, events[0].Diff)
	assert.Equal(t, []string{"gold"}, events[0].Diff.Keys())
	assert.Equal(t, domain.Number(20), events[0].Diff.Changed["gold"])
	assert.Equal(t, []string{"inventory"}, events[0].Diff.Removed)
	assert.Nil(t, events[1].Diff, "restoring the same state again changes nothing")
}

func TestRestoreSnapshot_BypassesConstraints(t *testing.T) {
	m := newManager(t)
	require.True(t, m.SetValue("gold", domain.Number(500), domain.SourceUser, ""))
	snap := m.CreateSnapshot("", "rich")

	require.NoError(t, m.Update(domain.Variable{
		ID: "gold", Type: domain.KindNumber, Default: domain.Number(10),
		Constraints: &domain.Constraints{Max: ptr(100)},
	}))
	require.True(t, m.RestoreSnapshot(snap.ID))
	assert.Equal(t, domain.Number(500), value(t, m, "gold"))
}

func TestPlaythrough(t *testing.T) {
	m := newManager(t)
	ten := domain.Number(10)
	_, err := m.AddSceneAction(domain.SceneAction{SceneID: "start", Type: domain.ActionIncrement, VariableID: "trust", Value: &ten})
	require.NoError(t, err)
	_, err = m.AddSceneAction(domain.SceneAction{SceneID: "market", Type: domain.ActionDecrement, VariableID: "gold", Value: &ten})
	require.NoError(t, err)

	require.True(t, m.SetValue("gold", domain.Number(50), domain.SourceUser, ""))

	_, ok := m.Playthrough()
	assert.False(t, ok)

	p := m.StartPlaythrough("qa run", "start")
	assert.Equal(t, "qa run", p.Name)
	assert.Equal(t, "start", p.CurrentSceneID)
	assert.Equal(t, epoch, p.StartedAt)
	require.Len(t, p.Path, 1)
	assert.Equal(t, 1, p.Path[0].VisitCount)
	assert.Empty(t, p.Path[0].Choices)
	assert.Equal(t, domain.Number(10), p.Values["trust"], "start scene actions ran")
	assert.Equal(t, domain.Number(10), p.Values["gold"], "values were reset")

	assert.Equal(t, 1, m.EnterScene("market", "go-market"))
	m.EnterScene("start", "go-back")
	m.EnterScene("market", "go-market")

	p, ok = m.Playthrough()
	require.True(t, ok)
	assert.Equal(t, "market", p.CurrentSceneID)
	assert.Equal(t, []string{"start", "market"}, p.Visited())
	assert.Equal(t, 2, p.Path[0].VisitCount)
	assert.Equal(t, []string{"go-back"}, p.Path[0].Choices)
	assert.Equal(t, 2, p.Path[1].VisitCount)
	assert.Equal(t, []string{"go-market", "go-market"}, p.Path[1].Choices)
	assert.Equal(t, 3, p.TotalChoices)
	assert.Equal(t, domain.Number(20), p.Values["trust"])
	assert.Equal(t, domain.Number(-10), p.Values["gold"])

	// The returned state is a copy.
	p.Path[0].Choices[0] = "tampered"
	again, _ := m.Playthrough()
	assert.Equal(t, []string{"go-back"}, again.Path[0].Choices)

	// A second playthrough discards the first.
	second := m.StartPlaythrough("second", "start")
	assert.NotEqual(t, p.ID, second.ID)
	assert.Equal(t, 0, second.TotalChoices)
	assert.Equal(t, domain.Number(10), value(t, m, "trust"))

	final, ok := m.EndPlaythrough()
	require.True(t, ok)
	assert.Equal(t, second.ID, final.ID)
	_, ok = m.Playthrough()
	assert.False(t, ok)
	_, ok = m.EndPlaythrough()
	assert.False(t, ok)
}

func TestEnterScene_WithoutPlaythroughRunsActions(t *testing.T) {
	m := newManager(t)
	_, err := m.AddSceneAction(domain.SceneAction{SceneID: "shrine", Type: domain.ActionToggle, VariableID: "flag_betrayed"})
	require.NoError(t, err)

	assert.Equal(t, 1, m.EnterScene("shrine", "pray"))
	assert.Equal(t, domain.Bool(true), value(t, m, "flag_betrayed"))
	_, ok := m.Playthrough()
	assert.False(t, ok)
}
