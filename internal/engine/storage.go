package engine

import (
	"fmt"
	"os"

	"giracore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StoreOpener constructs a durable store around the given check engine.
// Concrete backends register themselves here to keep the engine package free
// of driver imports.
type StoreOpener func(checks *CheckEngine) (domain.PersistentStore, error)

var storeOpeners = map[StorageDriver]StoreOpener{}

// RegisterStoreOpener binds a driver name to its backend constructor.
func RegisterStoreOpener(driver StorageDriver, opener StoreOpener) {
	storeOpeners[driver] = opener
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to memory when unset.
//
//	GIRACORE_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
func OpenPersistentStore(checks *CheckEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("GIRACORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageMemory)
	}
	if StorageDriver(driver) == StorageMemory {
		return NewMemoryStore(checks), nil
	}
	opener, ok := storeOpeners[StorageDriver(driver)]
	if !ok {
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
	return opener(checks)
}
