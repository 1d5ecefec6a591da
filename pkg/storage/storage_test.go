package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	sqlite, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "taskforge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Storage{"local": local, "sqlite": sqlite}
}

func TestStorage_Contract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Read(ctx, "tasks/missing.yaml")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "tasks/missing.yaml"), ErrNotFound)

			require.NoError(t, s.Write(ctx, "tasks/b.yaml", []byte("b")))
			require.NoError(t, s.Write(ctx, "tasks/a.yaml", []byte("a")))
			require.NoError(t, s.Write(ctx, "tasks/nested/c.yaml", []byte("c")))
			require.NoError(t, s.Write(ctx, "agents/x.yaml", []byte("x")))
			require.NoError(t, s.Write(ctx, "tasks/a.yaml", []byte("a2")))

			data, err := s.Read(ctx, "tasks/a.yaml")
			require.NoError(t, err)
			assert.Equal(t, "a2", string(data))

			paths, err := s.List(ctx, "tasks")
			require.NoError(t, err)
			assert.Equal(t, []string{"tasks/a.yaml", "tasks/b.yaml"}, paths)

			ok, err := s.Exists(ctx, "agents/x.yaml")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, s.Delete(ctx, "agents/x.yaml"))
			ok, err = s.Exists(ctx, "agents/x.yaml")
			require.NoError(t, err)
			assert.False(t, ok)

			paths, err = s.List(ctx, "empty")
			require.NoError(t, err)
			assert.Empty(t, paths)
		})
	}
}

func TestLocalStorage_StaysInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "../../escape.yaml", []byte("x")))
	ok, err := s.Exists(context.Background(), "escape.yaml")
	require.NoError(t, err)
	assert.True(t, ok)
}
