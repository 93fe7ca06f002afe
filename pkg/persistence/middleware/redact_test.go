package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewRedactMiddleware([]string{"^secret_"})
	require.NoError(t, err)
	ports.RunProjectStoreContract(t, mw(memory.NewStore()))
}

func TestRedactMiddleware_DropsMatchingValues(t *testing.T) {
	mw, err := middleware.NewRedactMiddleware([]string{"^secret_", "password"})
	require.NoError(t, err)
	store := mw(memory.NewStore())
	ctx := context.Background()

	doc := &domain.ProjectDocument{Values: domain.Values{
		"secret_code":   domain.String("1234"),
		"user_password": domain.String("hunter2"),
		"trust":         domain.Number(40),
	}}
	require.NoError(t, store.Save(ctx, "p", doc))
	assert.Len(t, doc.Values, 3, "caller's document is untouched")

	loaded, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, domain.Values{"trust": domain.Number(40)}, loaded.Values)
}

func TestRedactMiddleware_BadPattern(t *testing.T) {
	_, err := middleware.NewRedactMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	redact, err := middleware.NewRedactMiddleware([]string{"^secret_"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	underlying := memory.NewStore()
	store := middleware.Chain(underlying, redact, encrypt)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "p", &domain.ProjectDocument{Values: domain.Values{
		"secret_code": domain.String("1234"),
		"trust":       domain.Number(1),
	}}))

	raw, err := underlying.Load(ctx, "p")
	require.NoError(t, err)
	assert.Contains(t, raw.Values, "__encrypted__")

	loaded, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, domain.Values{"trust": domain.Number(1)}, loaded.Values)
}
