package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// ObjectStore persists binary blobs and returns a retrievable URL. All
// workflow callers treat it as best-effort: a failed store is logged by the
// caller and never aborts the parent operation.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, folder, name string) (string, error)
}

// NewObjectStore picks GCS in production (USE_GCS, Cloud Run, or explicit
// credentials) and local disk in development, mirroring the file-upload
// routing.
func NewObjectStore() ObjectStore {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != ""
	if useGCS {
		return &GCSStore{Bucket: os.Getenv("GCS_BUCKET")}
	}
	return &LocalStore{Dir: uploadDir}
}

// GCSStore writes objects to a Google Cloud Storage bucket.
type GCSStore struct {
	Bucket string
}

func (s *GCSStore) Store(ctx context.Context, data []byte, folder, name string) (string, error) {
	if s.Bucket == "" {
		return "", fmt.Errorf("GCS_BUCKET not configured")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	object := folder + "/" + name
	wc := client.Bucket(s.Bucket).Object(object).NewWriter(ctx)
	wc.ContentType = contentTypeFor(name)
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", object, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.Bucket, object), nil
}

// LocalStore writes objects under a local directory for development.
type LocalStore struct {
	Dir string
}

func (s *LocalStore) Store(ctx context.Context, data []byte, folder, name string) (string, error) {
	dir := filepath.Join(s.Dir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}

	return fmt.Sprintf("/uploads/%s/%s", folder, name), nil
}

func contentTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
