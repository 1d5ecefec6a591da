package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/pushsubscription"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

func TestYAMLRepository_SaveIsIdempotentPerEndpoint(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(s)

	first, err := repo.Save(ctx, &pushsubscription.Subscription{
		ID: "sub-1", Endpoint: "https://push.example/a", P256dhKey: "k1", AuthKey: "a1", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", first.ID)

	second, err := repo.Save(ctx, &pushsubscription.Subscription{
		ID: "sub-2", Endpoint: "https://push.example/a", P256dhKey: "k2", AuthKey: "a2",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", second.ID, "same endpoint keeps its id")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "k2", all[0].P256dhKey)

	require.NoError(t, repo.DeleteByEndpoint(ctx, "https://push.example/a"))
	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = repo.DeleteByEndpoint(ctx, "https://push.example/a")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
