package ps

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/nickyhof/DocDB/core"
)

func TestDetectScheme(t *testing.T) {
	tests := []struct {
		path     string
		expected urlScheme
	}{
		{"s3://bucket/key.json", schemeS3},
		{"S3://bucket/key.json", schemeS3},
		{"https://example.com/backup.json", schemeHTTPS},
		{"http://example.com/backup.json", schemeHTTP},
		{"file:///tmp/backup.json", schemeFile},
		{"/tmp/backup.json", schemeLocal},
		{"backup.json", schemeLocal},
	}

	for _, test := range tests {
		if got := detectScheme(test.path); got != test.expected {
			t.Errorf("detectScheme(%q) = %v, want %v", test.path, got, test.expected)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/path/to/backup.json")
	if err != nil {
		t.Fatalf("parseS3URL: %v", err)
	}
	if bucket != "my-bucket" || key != "path/to/backup.json" {
		t.Errorf("parsed %q / %q", bucket, key)
	}

	if _, _, err := parseS3URL("s3://bucket-only"); err == nil {
		t.Error("parseS3URL accepted a URL without a key")
	}
}

func TestHTTPWriteRejected(t *testing.T) {
	if _, err := openRemoteWriter(context.Background(), "https://example.com/backup.json", nil); err == nil {
		t.Error("openRemoteWriter accepted an HTTPS destination")
	}
}

func TestBackupAndRestoreLocalFile(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	store.Document().Tables["users"] = []core.Record{{"id": "1", "name": "alice"}}

	target := filepath.Join(t.TempDir(), "backup.json")
	ctx := context.Background()

	if err := store.Backup(ctx, target, nil); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	fresh, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	if err := fresh.RestoreBackup(ctx, "file://"+target, nil); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}

	users := fresh.Document().Table("users")
	if len(users) != 1 || users[0]["name"] != "alice" {
		t.Errorf("restored users = %v, want alice", users)
	}
}

type memoryWriteCloser struct {
	bytes.Buffer
}

func (w *memoryWriteCloser) Close() error { return nil }

func TestBackupUsesSwappableFileHooks(t *testing.T) {
	captured := &memoryWriteCloser{}

	previousCreate := osCreate
	osCreate = func(path string) (io.WriteCloser, error) { return captured, nil }
	defer func() { osCreate = previousCreate }()

	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	store.Document().Tables["items"] = []core.Record{{"id": "7"}}

	if err := store.Backup(context.Background(), "anywhere.json", nil); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if !bytes.Contains(captured.Bytes(), []byte(`"7"`)) {
		t.Errorf("captured backup does not hold the record: %s", captured.String())
	}
}
