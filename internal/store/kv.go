// Package store is the durable per-device persistence of SafeChecks.
//
// Backends implement the narrow KV interface; Local layers typed
// accessors, serialized read-modify-write and change notification on top.
package store

import (
	"github.com/safechecks/safechecks/pkg/errclass"
)

// KV is a durable byte-value store. Implementations must make Set atomic:
// after a crash a key holds either its old or its new value.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Keys lists keys starting with prefix in lexical order.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Driver names accepted by OpenKV.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// OpenKV opens the backend named by driver. For the file driver path is a
// directory; for sqlite it is the database file.
func OpenKV(driver, path string) (KV, error) {
	switch driver {
	case DriverFile, "":
		return NewFileKV(path)
	case DriverSQLite:
		return OpenSQLite(path)
	}
	return nil, errclass.ErrValidation.WithMessagef("unknown store driver %q", driver)
}

func storeErr(op, key string, err error) error {
	return errclass.ErrStore.WithMessagef("%s %s: %v", op, key, err)
}
