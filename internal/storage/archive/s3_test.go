// internal/storage/archive/s3_test.go
package archive

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/newthinker/kachi/internal/core"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Keys(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "runs/2025/01/02/a.json", "runs/2025/01/02/a.json"},
		{"kachi", "runs/a.json", "kachi/runs/a.json"},
		{"kachi/", "runs/a.json", "kachi/runs/a.json"},
		{"/kachi/", "/runs/a.json", "kachi/runs/a.json"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3: %v", err)
		}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		if rel := s.relative(got); rel != trimLeadingSlash(tt.path) {
			t.Errorf("relative(%q) = %q", got, rel)
		}
	}
}

func trimLeadingSlash(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p[1:]
	}
	return p
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(S3Config{Region: "eu-west-1"})
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", &types.NoSuchKey{})) {
		t.Error("NoSuchKey should be not found")
	}
	if !isNotFound(&types.NotFound{}) {
		t.Error("NotFound should be not found")
	}
	if isNotFound(errors.New("access denied")) {
		t.Error("generic error should not be not found")
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("runs/a.json"); got != "application/json" {
		t.Errorf("got %q", got)
	}
	if got := contentType("blob.bin"); got != "application/octet-stream" {
		t.Errorf("got %q", got)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Type: "localfs", Path: t.TempDir()}); err != nil {
		t.Errorf("localfs: %v", err)
	}
	if _, err := New(Config{Type: "localfs"}); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
	if _, err := New(Config{Type: "gcs"}); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
	s, err := New(Config{Type: "s3", S3: S3Config{Bucket: "runs"}})
	if err != nil {
		t.Fatalf("s3: %v", err)
	}
	if _, ok := s.(*S3Storage); !ok {
		t.Errorf("expected *S3Storage, got %T", s)
	}
}
