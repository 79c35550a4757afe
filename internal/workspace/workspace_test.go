package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safechecks/safechecks/internal/workspace"
	"github.com/safechecks/safechecks/pkg/config"
	"github.com/safechecks/safechecks/pkg/errclass"
)

func TestInit_CreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "venue")

	w, err := workspace.Init(root, nil)
	require.NoError(t, err)
	assert.Equal(t, workspace.FormatVersion, w.FormatVersion)

	assert.FileExists(t, filepath.Join(root, ".safechecks", "format_version"))
	assert.FileExists(t, filepath.Join(root, ".safechecks", "config.yaml"))
	assert.DirExists(t, filepath.Join(root, ".safechecks", "journal"))

	content, err := os.ReadFile(filepath.Join(root, ".safechecks", "format_version"))
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(content))
}

func TestInit_Twice(t *testing.T) {
	root := t.TempDir()
	_, err := workspace.Init(root, nil)
	require.NoError(t, err)

	_, err = workspace.Init(root, nil)
	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestDiscover_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	_, err := workspace.Init(root, nil)
	require.NoError(t, err)

	sub := filepath.Join(root, "exports", "2026")
	require.NoError(t, os.MkdirAll(sub, 0755))

	w, err := workspace.Discover(sub)
	require.NoError(t, err)
	assert.Equal(t, root, w.Root)
}

func TestDiscover_Missing(t *testing.T) {
	_, err := workspace.Discover(t.TempDir())
	assert.ErrorIs(t, err, errclass.ErrWorkspaceMissing)
}

func TestDiscover_NewerFormat(t *testing.T) {
	root := t.TempDir()
	_, err := workspace.Init(root, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".safechecks", "format_version"), []byte("9\n"), 0644))

	_, err = workspace.Discover(root)
	assert.ErrorIs(t, err, errclass.ErrFormatUnsupported)
}

func TestPaths(t *testing.T) {
	w := &workspace.Workspace{Root: "/srv/venue"}
	cfg := config.Default()

	assert.Equal(t, filepath.Join("/srv/venue", ".safechecks", "store"), w.StorePath(cfg))
	cfg.Store.Driver = "sqlite"
	assert.Equal(t, filepath.Join("/srv/venue", ".safechecks", "store.db"), w.StorePath(cfg))
	cfg.Store.Path = "data/local.db"
	assert.Equal(t, filepath.Join("/srv/venue", "data", "local.db"), w.StorePath(cfg))

	assert.Equal(t, filepath.Join("/srv/venue", ".safechecks", "journal", "sync.jsonl"), w.JournalPath())
	assert.Equal(t, "/abs/book.xlsx", w.ResolvePath("/abs/book.xlsx"))
	assert.Equal(t, filepath.Join("/srv/venue", "book.xlsx"), w.ResolvePath("book.xlsx"))
}
