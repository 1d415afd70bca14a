package storage

import (
	"fmt"
	"sort"

	"github.com/yi-nology/mediahub/pkg/config"
	"github.com/yi-nology/mediahub/pkg/storage/local"
	"github.com/yi-nology/mediahub/pkg/storage/s3"
)

// Registry maps disk names to their backends. It is built once from
// configuration and is read-only afterwards.
type Registry struct {
	disks       map[string]Disk
	configs     map[string]config.DiskConfig
	defaultDisk string
}

// NewRegistry creates every configured disk. S3 disks do not contact the
// remote endpoint until their first physical operation.
func NewRegistry(cfg config.StorageConfig) (*Registry, error) {
	r := &Registry{
		disks:       make(map[string]Disk, len(cfg.Disks)),
		configs:     make(map[string]config.DiskConfig, len(cfg.Disks)),
		defaultDisk: cfg.Default,
	}
	for name, dc := range cfg.Disks {
		disk, err := New(name, dc)
		if err != nil {
			return nil, err
		}
		r.disks[name] = disk
		r.configs[name] = dc
	}
	return r, nil
}

// New creates a disk adapter based on its configuration.
func New(name string, cfg config.DiskConfig) (Disk, error) {
	switch cfg.Driver {
	case "", config.DriverLocal:
		return local.New(local.Config{
			Name:   name,
			Root:   cfg.Root,
			Secure: cfg.Secure,
		})

	case config.DriverS3:
		return s3.New(s3.Config{
			Name:      name,
			URL:       cfg.URL,
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PathStyle: cfg.PathStyle,
			Timeout:   cfg.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("disk %q: unsupported driver %q", name, cfg.Driver)
	}
}

// Disk returns the backend registered under name.
func (r *Registry) Disk(name string) (Disk, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDisk, name)
	}
	disk, ok := r.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDisk, name)
	}
	return disk, nil
}

// Config returns the read-only configuration of a disk.
func (r *Registry) Config(name string) (config.DiskConfig, error) {
	if r == nil {
		return config.DiskConfig{}, fmt.Errorf("%w: %s", ErrUnknownDisk, name)
	}
	dc, ok := r.configs[name]
	if !ok {
		return config.DiskConfig{}, fmt.Errorf("%w: %s", ErrUnknownDisk, name)
	}
	return dc, nil
}

// Has reports whether name is configured.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.disks[name]
	return ok
}

// Default returns the name of the default disk.
func (r *Registry) Default() string {
	return r.defaultDisk
}

// Names lists the configured disks in a stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.disks))
	for name := range r.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a disk. Tests use it to install fakes.
func (r *Registry) Register(disk Disk) {
	r.disks[disk.Name()] = disk
}
