// Package workspace locates and initializes the per-device state directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/safechecks/safechecks/pkg/config"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/fsutil"
)

const (
	FormatVersion     = 1
	FormatVersionFile = "format_version"
	StoreDirName      = "store"
	JournalDirName    = "journal"
)

// Workspace is an initialized .safechecks directory and its parent.
type Workspace struct {
	Root          string
	FormatVersion int
}

// Dir returns the .safechecks directory.
func (w *Workspace) Dir() string { return filepath.Join(w.Root, config.DirName) }

// StorePath resolves the local store location. A relative configured path
// is taken from the workspace root.
func (w *Workspace) StorePath(cfg *config.Config) string {
	p := cfg.Store.Path
	if p == "" {
		p = filepath.Join(w.Dir(), StoreDirName)
		if cfg.Store.Driver == "sqlite" {
			p += ".db"
		}
		return p
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.Root, p)
	}
	return p
}

// JournalPath returns the sync journal file.
func (w *Workspace) JournalPath() string {
	return filepath.Join(w.Dir(), JournalDirName, "sync.jsonl")
}

// ResolvePath makes p absolute relative to the workspace root.
func (w *Workspace) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.Root, p)
}

// Init creates the state directory under path. Initializing an existing
// workspace is an error.
func Init(path string, cfg *config.Config) (*Workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	dir := filepath.Join(abs, config.DirName)
	if _, err := os.Stat(filepath.Join(dir, FormatVersionFile)); err == nil {
		return nil, errclass.ErrValidation.WithMessagef("workspace already initialized at %s", abs)
	}

	for _, d := range []string{dir, filepath.Join(dir, JournalDirName)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	if err := fsutil.AtomicWrite(filepath.Join(dir, FormatVersionFile), []byte(fmt.Sprintf("%d\n", FormatVersion)), 0644); err != nil {
		return nil, fmt.Errorf("write format_version: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Save(abs, cfg); err != nil {
		return nil, err
	}
	if err := fsutil.FsyncDir(abs); err != nil {
		return nil, fmt.Errorf("fsync workspace root: %w", err)
	}
	return &Workspace{Root: abs, FormatVersion: FormatVersion}, nil
}

// Discover walks up from cwd to the nearest directory holding .safechecks/.
func Discover(cwd string) (*Workspace, error) {
	path, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	for {
		dir := filepath.Join(path, config.DirName)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			version, err := readFormatVersion(dir)
			if err != nil {
				return nil, err
			}
			if version > FormatVersion {
				return nil, errclass.ErrFormatUnsupported.WithMessagef(
					"format version %d > supported %d", version, FormatVersion)
			}
			return &Workspace{Root: path, FormatVersion: version}, nil
		}

		parent := filepath.Dir(path)
		if parent == path {
			return nil, errclass.ErrWorkspaceMissing.WithMessage(
				"no SafeChecks workspace found (run 'safechecks init')")
		}
		path = parent
	}
}

func readFormatVersion(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, FormatVersionFile))
	if err != nil {
		return 0, fmt.Errorf("read format_version: %w", err)
	}
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &version); err != nil {
		return 0, fmt.Errorf("parse format_version: %w", err)
	}
	return version, nil
}
