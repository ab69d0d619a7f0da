package defaults

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenEmpty(t *testing.T) {
	cfg, err := OpenEmpty()
	require.NoError(t, err)

	require.Equal(t, int64(1), cfg.Int("recover.threads"))
	require.False(t, cfg.Bool("recover.heur3"))
	require.False(t, cfg.Bool("recover.heur4"))
	require.Equal(t, "warning", cfg.String("log.level"))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte("recover:\n  threads: 8\n  heur3: true\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Open(path)
	require.NoError(t, err)

	require.Equal(t, int64(8), cfg.Int("recover.threads"))
	require.True(t, cfg.Bool("recover.heur3"))
	require.False(t, cfg.Bool("recover.heur4"))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
