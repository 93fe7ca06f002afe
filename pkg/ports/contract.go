package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument() *domain.ProjectDocument {
	ten := domain.Number(10)
	return &domain.ProjectDocument{
		Variables: []domain.Variable{
			{ID: "trust", Name: "Trust", Type: domain.KindNumber, Default: domain.Number(0), Scope: domain.ScopeGlobal},
			{ID: "inventory", Name: "Inventory", Type: domain.KindStringList, Default: domain.Strings(), Scope: domain.ScopeGlobal},
		},
		Values: domain.Values{
			"trust":     domain.Number(42),
			"inventory": domain.Strings("key", "map"),
		},
		BranchConditions: []domain.BranchCondition{{
			ID:        "gate-confide",
			ChoiceID:  "confide",
			Condition: domain.Compare("trust", domain.OpGreaterEqual, domain.Number(30)),
			Enabled:   true,
		}},
		SceneActions: []domain.SceneAction{{
			ID: "reward", SceneID: "dock", Type: domain.ActionIncrement, VariableID: "trust", Value: &ten,
		}},
	}
}

// RunProjectStoreContract verifies that a ProjectStore implementation
// adheres to the interface contract. Documents must round-trip without loss.
func RunProjectStoreContract(t *testing.T, store ProjectStore) {
	ctx := context.Background()
	projectID := "contract-test-project-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument()
		require.NoError(t, store.Save(ctx, projectID, doc), "Save should not return error")

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc, loaded)
	})

	t.Run("Load returns an independent copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, projectID, contractDocument()))

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err)
		loaded.Values["trust"] = domain.Number(-1)

		again, err := store.Load(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, domain.Number(42), again.Values["trust"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+projectID)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, projectID, contractDocument()))
		require.NoError(t, store.Delete(ctx, projectID), "Delete should not return error")

		_, err := store.Load(ctx, projectID)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound, "Load after Delete should return ErrProjectNotFound")
		assert.NoError(t, store.Delete(ctx, projectID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := projectID + "-1"
		id2 := projectID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractDocument()))
		require.NoError(t, store.Save(ctx, id2, contractDocument()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
