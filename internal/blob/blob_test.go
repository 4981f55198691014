package blob

import (
	"context"
	"path/filepath"
	"testing"
)

func testStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	info, err := store.Put(ctx, "viaticos/t1/export.json", []byte(`{"ok":true}`), "application/json", map[string]string{"id_gira": "t1"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "viaticos/t1/export.json" || info.Size != int64(len(`{"ok":true}`)) {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Metadata["id_gira"] != "t1" {
		t.Fatalf("metadata lost: %+v", info.Metadata)
	}

	if _, err := store.Put(ctx, "viaticos/t1/export.json", []byte("x"), "text/plain", nil); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}

	got, payload, err := store.Get(ctx, "viaticos/t1/export.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(payload) != `{"ok":true}` || got.ContentType != "application/json" {
		t.Fatalf("unexpected get result: %+v %q", got, payload)
	}

	if _, err := store.Put(ctx, "viaticos/t1/export.csv", []byte("id\n1\n"), "text/csv", nil); err != nil {
		t.Fatalf("put csv: %v", err)
	}
	if _, err := store.Put(ctx, "otros/nota.txt", []byte("hola"), "text/plain", nil); err != nil {
		t.Fatalf("put other: %v", err)
	}

	infos, err := store.List(ctx, "viaticos/t1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "viaticos/t1/export.csv" || infos[1].Key != "viaticos/t1/export.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	deleted, err := store.Delete(ctx, "otros/nota.txt")
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if _, _, err := store.Get(ctx, "otros/nota.txt"); err == nil {
		t.Fatalf("expected get after delete to fail")
	}
	deleted, err = store.Delete(ctx, "otros/nota.txt")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatalf("second delete reported removal")
	}
}

func TestMemoryStoreContract(t *testing.T) {
	testStoreContract(t, NewMemory())
}

func TestFilesystemStoreContract(t *testing.T) {
	store, err := NewFilesystem(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	testStoreContract(t, store)
}

func TestFilesystemStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "artifacts")

	store, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	if _, err := store.Put(ctx, "viaticos/t1/export.json", []byte("{}"), "application/json", map[string]string{"lineas": "0"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	reopened, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	info, payload, err := reopened.Get(ctx, "viaticos/t1/export.json")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(payload) != "{}" || info.Metadata["lineas"] != "0" {
		t.Fatalf("artifact not restored: %+v %q", info, payload)
	}
}

func TestOpenDefaultsToMemory(t *testing.T) {
	t.Setenv("GIRACORE_BLOB_DRIVER", "")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("GIRACORE_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
