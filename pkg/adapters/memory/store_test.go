package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunProjectStoreContract(t, store)
}

func TestMemoryStore_SaveCopies(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	doc := &domain.ProjectDocument{Values: domain.Values{"gold": domain.Number(1)}}

	require.NoError(t, store.Save(ctx, "p", doc))
	doc.Values["gold"] = domain.Number(99)

	loaded, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, domain.Number(1), loaded.Values["gold"])

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, ids)
}
