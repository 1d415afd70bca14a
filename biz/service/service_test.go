package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/biz/service"
	"github.com/yi-nology/mediahub/pkg/config"
	"github.com/yi-nology/mediahub/pkg/storage"

	"gorm.io/gorm"
)

// fixedNow is the clock used by every test service.
var fixedNow = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	svc       *service.Service
	db        *gorm.DB
	disks     *storage.Registry
	mediaRoot string
	localRoot string
}

// newTestService wires a service over in-memory SQLite and these disks:
// media (token gated, local), local (public), r2 (endpoint+bucket), cdn
// (public base url) and bare (s3 with nothing configured).
func newTestService(t *testing.T, opts ...service.Option) *testEnv {
	t.Helper()
	gdb := db.SetupTestDB(t)

	tmp := t.TempDir()
	env := &testEnv{
		db:        gdb,
		mediaRoot: filepath.Join(tmp, "media"),
		localRoot: filepath.Join(tmp, "public"),
	}
	disks, err := storage.NewRegistry(config.StorageConfig{
		Default: "media",
		Disks: map[string]config.DiskConfig{
			"media": {Driver: config.DriverLocal, Secure: true, Root: env.mediaRoot},
			"local": {Driver: config.DriverLocal, Root: env.localRoot},
			"r2":    {Driver: config.DriverS3, Endpoint: "https://acc.r2.example.com/", Bucket: "assets", Region: "auto"},
			"cdn":   {Driver: config.DriverS3, URL: "https://cdn.example.com", Bucket: "assets"},
			"bare":  {Driver: config.DriverS3},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	env.disks = disks

	opts = append([]service.Option{service.WithClock(func() time.Time { return fixedNow })}, opts...)
	env.svc = service.NewService(gdb, disks, opts...)
	return env
}

// writeObject stores data on a local disk root.
func writeObject(t *testing.T, root, key string, data []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatalf("write object: %v", err)
	}
}

func objectExists(root, key string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	return err == nil
}

// pngBytes encodes a w x h opaque image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func registerMedia(t *testing.T, svc *service.Service, input *service.RegisterInput) *model.MediaAsset {
	t.Helper()
	if input.MimeType == "" {
		input.MimeType = "image/png"
	}
	m, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register(%s): %v", input.Filename, err)
	}
	return m
}
