package repositoryimpl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	s, err := storage.NewSQLiteStorage(t.TempDir() + "/agents.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewYAMLRepository(s)
}

func TestYAMLRepository_UniqueName(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Create(ctx, &agent.Agent{ID: "a1", Name: "planner", Type: agent.TypePlanner, IsActive: true}))
	err := repo.Create(ctx, &agent.Agent{ID: "a2", Name: "planner", Type: agent.TypeGenerator})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	got, err := repo.FindByName(ctx, "planner")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	_, err = repo.FindByName(ctx, "nobody")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepository_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Create(ctx, &agent.Agent{ID: "3", Name: "zeta", Type: agent.TypeGenerator, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &agent.Agent{ID: "1", Name: "alpha", Type: agent.TypeGenerator, IsActive: false}))
	require.NoError(t, repo.Create(ctx, &agent.Agent{ID: "2", Name: "beta", Type: agent.TypeReviewer, IsActive: true}))

	all, total, err := repo.List(ctx, agent.Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[2].Name)

	gens, total, err := repo.List(ctx, agent.Filter{Type: agent.TypeGenerator, ActiveOnly: true}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "zeta", gens[0].Name)
}

func TestYAMLRepository_UpdateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a := &agent.Agent{ID: "a1", Name: "gen", Type: agent.TypeGenerator, IsActive: true}
	require.NoError(t, repo.Create(ctx, a))

	a.IsActive = false
	require.NoError(t, repo.Update(ctx, a, 1))
	assert.Equal(t, int64(2), a.Version)

	err := repo.Update(ctx, a, 1)
	assert.True(t, cerr.IsCode(err, cerr.Aborted))
}
