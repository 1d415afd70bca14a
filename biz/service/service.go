package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/pkg/config"
	"github.com/yi-nology/mediahub/pkg/lock"
	"github.com/yi-nology/mediahub/pkg/metrics"
	"github.com/yi-nology/mediahub/pkg/slug"
	"github.com/yi-nology/mediahub/pkg/storage"
	"github.com/yi-nology/mediahub/pkg/validator"
	"go.uber.org/multierr"

	"gorm.io/gorm"
)

// maxInsertAttempts bounds retries after a unique violation on insert.
const maxInsertAttempts = 3

// Service orchestrates disks, folders, media and galleries using Logic.
type Service struct {
	logic      *Logic
	disks      *storage.Registry
	locker     lock.Locker
	upload     *validator.UploadPolicy
	invalidURL string
	metrics    *metrics.StorageMetrics
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLocker sets the per-scope locker; the default is in-process.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithUploadPolicy sets the limits applied by Upload.
func WithUploadPolicy(p *validator.UploadPolicy) Option {
	return func(s *Service) { s.upload = p }
}

// WithInvalidURL sets the sentinel returned by failed URL synthesis.
func WithInvalidURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.invalidURL = u
		}
	}
}

// WithMetrics records storage drift counters.
func WithMetrics(m *metrics.StorageMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(dbConn *gorm.DB, disks *storage.Registry, opts ...Option) *Service {
	s := &Service{
		logic:      NewLogic(dbConn),
		disks:      disks,
		locker:     lock.NewLocal(),
		upload:     validator.NewUploadPolicy(0, nil),
		invalidURL: config.DefaultInvalidURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvalidURL returns the sentinel used for unresolvable assets.
func (s *Service) InvalidURL() string {
	return s.invalidURL
}

// --------------------- Service helpers ---------------------

// newMediaToken draws a token unused by media and gallery images.
func (s *Service) newMediaToken(ctx context.Context) (string, error) {
	return slug.UniqueToken(ctx, s.logic.TokenTaken)
}

// createMedia assigns a fresh token and inserts m, retrying when the insert
// loses a token race.
func (s *Service) createMedia(ctx context.Context, l *Logic, m *model.MediaAsset) error {
	var err error
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		token, tokenErr := s.newMediaToken(ctx)
		if tokenErr != nil {
			return fmt.Errorf("generate token: %w", tokenErr)
		}
		m.PublicToken = token
		if err = l.CreateMedia(ctx, m); err == nil || !db.IsUniqueViolation(err) {
			return err
		}
		hlog.CtxWarnf(ctx, "public token collision on insert, retrying (attempt %d)", attempt+1)
	}
	return err
}

// recordOrphan logs a physical failure and queues it for reconciliation.
func (s *Service) recordOrphan(ctx context.Context, o *model.StorageOrphan) {
	s.metrics.PhysicalFailure(o.Disk, o.Operation)
	if err := s.logic.CreateOrphan(ctx, o); err != nil {
		hlog.CtxErrorf(ctx, "record orphan %s %s:%s: %v", o.Operation, o.Disk, o.Path, err)
	}
}

// deletePhysical removes the objects of a record best effort. Failures are
// logged and recorded as orphans; the aggregated error is returned for logging.
func (s *Service) deletePhysical(ctx context.Context, diskName string, mediaID *uint, paths ...string) error {
	keys := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		keys = append(keys, p)
	}

	disk, err := s.disks.Disk(diskName)
	if err != nil {
		for _, p := range keys {
			s.recordOrphan(ctx, &model.StorageOrphan{Disk: diskName, Path: p, Operation: model.OrphanDelete, Reason: err.Error(), MediaID: mediaID})
		}
		hlog.CtxWarnf(ctx, "physical delete skipped on disk %s: %v", diskName, err)
		return err
	}

	var errs []error
	for _, p := range keys {
		if err := disk.DeleteObject(ctx, p); err != nil {
			hlog.CtxWarnf(ctx, "physical delete %s:%s failed: %v", diskName, p, err)
			s.recordOrphan(ctx, &model.StorageOrphan{Disk: diskName, Path: p, Operation: model.OrphanDelete, Reason: err.Error(), MediaID: mediaID})
			errs = append(errs, fmt.Errorf("%s:%s: %w", diskName, p, err))
		}
	}
	return multierr.Combine(errs...)
}

func lockKeyRoot(tenantID *uint, disk string) string {
	return "folder-root:" + disk + ":" + model.TenantKey(tenantID)
}

func lockKeyGallery(galleryID uint) string {
	return fmt.Sprintf("gallery:%d", galleryID)
}
