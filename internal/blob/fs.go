package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FilesystemStore implements Store on a local directory. Each object is a
// payload file plus a sidecar JSON file carrying its metadata.
type FilesystemStore struct {
	root string
}

// NewFilesystem returns a filesystem-backed object store rooted at dir.
func NewFilesystem(dir string) (*FilesystemStore, error) {
	if dir == "" {
		dir = "giracore-artifacts"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FilesystemStore{root: dir}, nil
}

// Driver returns the blob driver identifier.
func (s *FilesystemStore) Driver() Driver { return DriverFilesystem }

func (s *FilesystemStore) paths(key string) (string, string) {
	safe := strings.ReplaceAll(key, "/", "__")
	base := filepath.Join(s.root, safe)
	return base, base + ".meta.json"
}

// Put stores a new object; errors if the key exists.
func (s *FilesystemStore) Put(_ context.Context, key string, payload []byte, contentType string, metadata map[string]string) (Info, error) {
	dataPath, metaPath := s.paths(key)
	if _, err := os.Stat(dataPath); err == nil {
		return Info{}, fmt.Errorf("object %s already exists", key)
	}
	if err := os.WriteFile(dataPath, payload, 0o640); err != nil {
		return Info{}, fmt.Errorf("write object: %w", err)
	}
	st, err := os.Stat(dataPath)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Key:          key,
		Size:         int64(len(payload)),
		ContentType:  contentType,
		Metadata:     cloneMetadata(metadata),
		LastModified: st.ModTime().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(metaPath, meta, 0o640); err != nil {
		return Info{}, fmt.Errorf("write object metadata: %w", err)
	}
	return info, nil
}

// Get returns the object metadata and payload.
func (s *FilesystemStore) Get(_ context.Context, key string) (Info, []byte, error) {
	dataPath, metaPath := s.paths(key)
	meta, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, nil, fmt.Errorf("object %s not found", key)
		}
		return Info{}, nil, err
	}
	var info Info
	if err := json.Unmarshal(meta, &info); err != nil {
		return Info{}, nil, fmt.Errorf("decode object metadata: %w", err)
	}
	payload, err := os.ReadFile(dataPath)
	if err != nil {
		return Info{}, nil, err
	}
	return info, payload, nil
}

// Delete removes the object, returning true if it existed.
func (s *FilesystemStore) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath := s.paths(key)
	err := os.Remove(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List returns all objects matching the prefix, sorted by key.
func (s *FilesystemStore) List(_ context.Context, prefix string) ([]Info, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta.json") {
			continue
		}
		meta, err := os.ReadFile(filepath.Join(s.root, e.Name()))
		if err != nil {
			return nil, err
		}
		var info Info
		if err := json.Unmarshal(meta, &info); err != nil {
			continue
		}
		if strings.HasPrefix(info.Key, prefix) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
