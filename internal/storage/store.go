// internal/storage/store.go
package storage

import (
	"fmt"
	"regexp"

	"github.com/Corphon/StandfmAI/internal/config"
)

// Well-known keys.
const (
	KeyHistory = "history"
	KeyProfile = "profile"
	KeyScripts = "scripts"
)

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Store persists JSON documents by key. Writes are last-write-wins.
type Store interface {
	// Get decodes the value for key into dest. found is false when the key is absent.
	Get(key string, dest any) (found bool, err error)
	Put(key string, value any) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}

// NewStore opens the backend selected by cfg.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.StorageDriverSQLite:
		return OpenSQLiteStore(cfg.DataDir)
	case config.StorageDriverFile, "":
		return NewFileStorage(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
