package store

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/safechecks/safechecks/pkg/fsutil"
)

const fileExt = ".json"

// FileKV stores one file per key in a directory. Writes go through
// fsutil.AtomicWrite.
type FileKV struct {
	dir string
}

// NewFileKV creates the directory if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storeErr("mkdir", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt)
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	data, ok, err := fsutil.ReadIfExists(f.path(key))
	if err != nil {
		return nil, false, storeErr("read", key, err)
	}
	return data, ok, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	if err := fsutil.AtomicWrite(f.path(key), value, 0644); err != nil {
		return storeErr("write", key, err)
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	if err := fsutil.RemoveAndSync(f.path(key)); err != nil {
		return storeErr("delete", key, err)
	}
	return nil
}

func (f *FileKV) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, storeErr("list", prefix, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileKV) Close() error { return nil }
