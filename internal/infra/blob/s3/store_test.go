package s3

import (
	"context"
	"strings"
	"testing"

	"giracore/internal/blob"
)

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "us-east-1"})
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "giracore-test",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != blob.DriverS3 {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("GIRACORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestOpenRoutesToS3Driver(t *testing.T) {
	t.Setenv("GIRACORE_BLOB_DRIVER", "s3")
	t.Setenv("GIRACORE_BLOB_S3_BUCKET", "giracore-test")
	t.Setenv("GIRACORE_BLOB_S3_REGION", "us-east-1")
	store, err := blob.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != blob.DriverS3 {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
}
