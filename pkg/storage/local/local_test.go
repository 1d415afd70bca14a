package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newDisk(t *testing.T, secure bool) *Storage {
	t.Helper()
	s, err := New(Config{Name: "media", Root: t.TempDir(), Secure: secure})
	if err != nil {
		t.Fatalf("new local disk: %v", err)
	}
	return s
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newDisk(t, false)

	if err := s.PutObject(ctx, "2024/05/a.txt", strings.NewReader("hello"), "text/plain", 5); err != nil {
		t.Fatalf("put: %v", err)
	}
	exists, err := s.ObjectExists(ctx, "2024/05/a.txt")
	if err != nil || !exists {
		t.Fatalf("expected object to exist, got %v %v", exists, err)
	}

	rc, err := s.GetObject(ctx, "2024/05/a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := s.DeleteObject(ctx, "2024/05/a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteObject(ctx, "2024/05/a.txt"); err != nil {
		t.Fatalf("deleting a missing file must succeed, got %v", err)
	}
	if _, err := s.GetObject(ctx, "2024/05/a.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestKeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	s := newDisk(t, false)

	if err := s.PutObject(ctx, "../../escape.txt", strings.NewReader("x"), "", 1); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.BasePath(), "escape.txt")); err != nil {
		t.Fatalf("expected traversal to be cleaned into the root: %v", err)
	}
}

func TestCopyObject(t *testing.T) {
	ctx := context.Background()
	s := newDisk(t, true)

	if err := s.PutObject(ctx, "a/src.bin", strings.NewReader("payload"), "", 7); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.CopyObject(ctx, "a/src.bin", "b/dst.bin"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if ok, _ := s.ObjectExists(ctx, "b/dst.bin"); !ok {
		t.Fatalf("expected copy to exist")
	}
	if err := s.CopyObject(ctx, "missing.bin", "c.bin"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error for missing source, got %v", err)
	}
}

func TestObjectURL(t *testing.T) {
	public := newDisk(t, false)
	if got, err := public.ObjectURL("2024/05/a.png", "tok"); err != nil || got != "/assets/uploads/2024/05/a.png" {
		t.Fatalf("unexpected public url %q %v", got, err)
	}
	if public.Kind() != "local" {
		t.Fatalf("expected local kind, got %s", public.Kind())
	}

	secure := newDisk(t, true)
	if got, err := secure.ObjectURL("2024/05/a.png", "AbC123"); err != nil || got != "/media/t/AbC123" {
		t.Fatalf("unexpected token url %q %v", got, err)
	}
	if _, err := secure.ObjectURL("2024/05/a.png", ""); err == nil {
		t.Fatalf("expected missing token to fail")
	}
	if secure.Kind() != "token" {
		t.Fatalf("expected token kind, got %s", secure.Kind())
	}
}
