// Package blob defines the object-store abstraction used to persist export
// artifacts, with filesystem and in-memory implementations built in.
package blob

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverMemory represents the in-memory implementation used in tests.
	DriverMemory Driver = "memory"
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs"
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
)

// Info describes a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store persists immutable export artifacts.
type Store interface {
	// Put stores a new object; implementations fail if the key exists.
	Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (Info, error)
	// Get returns the object metadata and its full payload.
	Get(ctx context.Context, key string) (Info, []byte, error)
	// Delete removes the object; returns true if it existed. Idempotent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects whose keys start with the prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Opener constructs a store for a registered driver.
type Opener func(ctx context.Context) (Store, error)

var openers = map[Driver]Opener{}

// RegisterOpener binds a driver name to its backend constructor.
func RegisterOpener(driver Driver, opener Opener) {
	openers[driver] = opener
}

// Open selects a backend using environment variables.
//
//	GIRACORE_BLOB_DRIVER: memory|fs|s3 (default memory)
//	GIRACORE_BLOB_FS_ROOT: artifact directory when driver=fs
func Open(ctx context.Context) (Store, error) {
	driver := Driver(os.Getenv("GIRACORE_BLOB_DRIVER"))
	if driver == "" {
		driver = DriverMemory
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("GIRACORE_BLOB_FS_ROOT"))
	}
	if opener, ok := openers[driver]; ok {
		return opener(ctx)
	}
	return nil, fmt.Errorf("unknown blob driver %s", driver)
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
