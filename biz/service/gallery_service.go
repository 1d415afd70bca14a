package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/pkg/slug"
	"github.com/yi-nology/mediahub/pkg/validator"
	"go.uber.org/multierr"
	"gorm.io/datatypes"
)

// GalleryInput carries the editable fields of a gallery. A nil IsActive
// defaults to true on create and is left unchanged on update.
type GalleryInput struct {
	TenantID    *uint
	Name        string `validate:"required,max=255"`
	Description string
	Layout      string `validate:"omitempty,oneof=grid masonry carousel lightbox justified"`
	Settings    map[string]interface{}
	IsActive    *bool
	IsFeatured  bool
	SortOrder   int
}

// AddImageInput describes an image already written to Disk at Path.
type AddImageInput struct {
	Disk       string `validate:"required,diskname"`
	Path       string `validate:"required,max=1024"`
	Filename   string `validate:"required,max=255"`
	MimeType   string `validate:"max=128"`
	Size       int64  `validate:"gte=0"`
	Width      int    `validate:"gte=0"`
	Height     int    `validate:"gte=0"`
	AltText    string `validate:"max=512"`
	Title      string `validate:"max=255"`
	Caption    string
	LinkURL    string `validate:"omitempty,max=1024"`
	LinkTarget string `validate:"omitempty,oneof=_self _blank"`
	Metadata   map[string]interface{}
}

// UpdateImageInput lists editable image fields; nil leaves a field as is.
type UpdateImageInput struct {
	AltText    *string `validate:"omitempty,max=512"`
	Title      *string `validate:"omitempty,max=255"`
	Caption    *string
	LinkURL    *string `validate:"omitempty,max=1024"`
	LinkTarget *string `validate:"omitempty,oneof=_self _blank"`
	IsActive   *bool
}

// --------------------- Gallery operations ---------------------

func (s *Service) CreateGallery(ctx context.Context, input *GalleryInput) (*model.Gallery, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid gallery: %w", err)
	}
	tenantID := model.NormalizeTenant(input.TenantID)

	var err error
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		var gallerySlug string
		gallerySlug, err = s.GenerateGallerySlug(ctx, input.Name, tenantID, 0)
		if err != nil {
			return nil, err
		}
		g := &model.Gallery{TenantID: tenantID, Slug: gallerySlug}
		applyGalleryInput(g, input)
		if g.Layout == "" {
			g.Layout = model.LayoutGrid
		}
		if input.IsActive == nil {
			g.IsActive = true
		}
		if err = s.logic.CreateGallery(ctx, g); err == nil {
			return g, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create gallery: %w", err)
		}
	}
	return nil, fmt.Errorf("create gallery: %w", err)
}

// UpdateGallery edits a gallery. A changed name re-slugs it within its scope.
func (s *Service) UpdateGallery(ctx context.Context, galleryID uint, input *GalleryInput) (*model.Gallery, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid gallery: %w", err)
	}
	g, err := s.logic.GetGallery(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if input.Name != g.Name {
		gallerySlug, err := s.GenerateGallerySlug(ctx, input.Name, g.TenantID, g.ID)
		if err != nil {
			return nil, err
		}
		g.Slug = gallerySlug
	}
	applyGalleryInput(g, input)
	if err := s.logic.SaveGallery(ctx, g); err != nil {
		return nil, fmt.Errorf("update gallery %d: %w", galleryID, err)
	}
	return g, nil
}

func (s *Service) GetGallery(ctx context.Context, galleryID uint) (*model.Gallery, error) {
	return s.logic.GetGallery(ctx, galleryID)
}

// GetGalleryBySlug resolves a slug in the tenant's scope first, then among
// global galleries.
func (s *Service) GetGalleryBySlug(ctx context.Context, tenantID *uint, gallerySlug string) (*model.Gallery, error) {
	tenantID = model.NormalizeTenant(tenantID)
	g, err := s.logic.GetGalleryByScopeKey(ctx, model.GalleryScopeKey(tenantID, gallerySlug))
	if err == nil || tenantID == nil || !errors.Is(err, ErrGalleryNotFound) {
		return g, err
	}
	return s.logic.GetGalleryByScopeKey(ctx, model.GalleryScopeKey(nil, gallerySlug))
}

// DeleteGallery removes every image object best effort, then the image rows
// and the gallery in one transaction.
func (s *Service) DeleteGallery(ctx context.Context, galleryID uint) error {
	g, err := s.logic.GetGallery(ctx, galleryID)
	if err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, lockKeyGallery(g.ID))
	if err != nil {
		return fmt.Errorf("lock gallery %d: %w", g.ID, err)
	}
	defer unlock()

	images, err := s.logic.ListGalleryImages(ctx, g.ID, false)
	if err != nil {
		return err
	}
	var physical error
	for i := range images {
		img := &images[i]
		physical = multierr.Append(physical, s.deletePhysical(ctx, img.Disk, nil, img.Path, img.ThumbnailPath()))
	}
	if physical != nil {
		hlog.CtxWarnf(ctx, "gallery %d: %d physical deletes failed: %v", g.ID, len(multierr.Errors(physical)), physical)
	}

	return s.logic.Transaction(ctx, func(tl *Logic) error {
		if err := tl.DeleteGalleryImages(ctx, g.ID); err != nil {
			return err
		}
		return tl.DeleteGallery(ctx, g.ID)
	})
}

// GetByTenant lists the tenant's galleries together with global ones.
func (s *Service) GetByTenant(ctx context.Context, tenantID *uint) ([]model.Gallery, error) {
	return s.logic.ListGalleries(ctx, tenantID, db.GalleryFilter{})
}

func (s *Service) GetActive(ctx context.Context, tenantID *uint) ([]model.Gallery, error) {
	return s.logic.ListGalleries(ctx, tenantID, db.GalleryFilter{ActiveOnly: true})
}

func (s *Service) GetFeatured(ctx context.Context, tenantID *uint) ([]model.Gallery, error) {
	return s.logic.ListGalleries(ctx, tenantID, db.GalleryFilter{ActiveOnly: true, FeaturedOnly: true})
}

// GenerateGallerySlug slugifies name and probes name, name-1, ... within the
// tenant scope. excludeID ignores the gallery being renamed.
func (s *Service) GenerateGallerySlug(ctx context.Context, name string, tenantID *uint, excludeID uint) (string, error) {
	return slug.Unique(slug.Make(name), func(candidate string) (bool, error) {
		return s.GallerySlugExists(ctx, candidate, tenantID, excludeID)
	})
}

func (s *Service) GallerySlugExists(ctx context.Context, gallerySlug string, tenantID *uint, excludeID uint) (bool, error) {
	return s.logic.GallerySlugTaken(ctx, model.GalleryScopeKey(model.NormalizeTenant(tenantID), gallerySlug), excludeID)
}

// --------------------- Gallery image operations ---------------------

// AddImage appends an image at the end of the gallery order.
func (s *Service) AddImage(ctx context.Context, galleryID uint, input *AddImageInput) (*model.GalleryImage, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid gallery image: %w", err)
	}
	disk, err := s.disks.Disk(input.Disk)
	if err != nil {
		return nil, err
	}
	g, err := s.logic.GetGallery(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	img := &model.GalleryImage{
		GalleryID:  g.ID,
		TenantID:   g.TenantID,
		Disk:       disk.Name(),
		Path:       input.Path,
		Filename:   input.Filename,
		MimeType:   input.MimeType,
		Size:       input.Size,
		Width:      input.Width,
		Height:     input.Height,
		AltText:    input.AltText,
		Title:      input.Title,
		Caption:    input.Caption,
		LinkURL:    input.LinkURL,
		LinkTarget: input.LinkTarget,
		IsActive:   true,
	}
	if img.LinkTarget == "" {
		img.LinkTarget = model.LinkTargetSelf
	}
	if input.Metadata != nil {
		img.Metadata = datatypes.JSONMap(input.Metadata)
	}
	if img.MimeType == "" || img.Width == 0 || img.Height == 0 {
		s.probeImage(ctx, img)
	}

	unlock, err := s.locker.Lock(ctx, lockKeyGallery(g.ID))
	if err != nil {
		return nil, fmt.Errorf("lock gallery %d: %w", g.ID, err)
	}
	defer unlock()

	count, err := s.logic.CountGalleryImages(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	img.SortOrder = int(count)

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		token, tokenErr := s.newMediaToken(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("generate token: %w", tokenErr)
		}
		img.PublicToken = token
		if err = s.logic.CreateGalleryImage(ctx, img); err == nil {
			return img, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("add gallery image: %w", err)
		}
		hlog.CtxWarnf(ctx, "public token collision on gallery image insert, retrying (attempt %d)", attempt+1)
	}
	return nil, fmt.Errorf("add gallery image: %w", err)
}

func (s *Service) UpdateImage(ctx context.Context, imageID uint, input *UpdateImageInput) (*model.GalleryImage, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid gallery image: %w", err)
	}
	img, err := s.logic.GetGalleryImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if input.AltText != nil {
		img.AltText = *input.AltText
	}
	if input.Title != nil {
		img.Title = *input.Title
	}
	if input.Caption != nil {
		img.Caption = *input.Caption
	}
	if input.LinkURL != nil {
		img.LinkURL = *input.LinkURL
	}
	if input.LinkTarget != nil {
		img.LinkTarget = *input.LinkTarget
	}
	if input.IsActive != nil {
		img.IsActive = *input.IsActive
	}
	if err := s.logic.SaveGalleryImage(ctx, img); err != nil {
		return nil, fmt.Errorf("update gallery image %d: %w", imageID, err)
	}
	return img, nil
}

// RemoveImage deletes the image objects best effort, then the row, and
// closes the gap in the gallery order.
func (s *Service) RemoveImage(ctx context.Context, imageID uint) error {
	img, err := s.logic.GetGalleryImage(ctx, imageID)
	if err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, lockKeyGallery(img.GalleryID))
	if err != nil {
		return fmt.Errorf("lock gallery %d: %w", img.GalleryID, err)
	}
	defer unlock()

	if err := s.deletePhysical(ctx, img.Disk, nil, img.Path, img.ThumbnailPath()); err != nil {
		hlog.CtxWarnf(ctx, "gallery image %d: physical delete incomplete: %v", img.ID, err)
	}

	return s.logic.Transaction(ctx, func(tl *Logic) error {
		if err := tl.DeleteGalleryImage(ctx, img.ID); err != nil {
			return err
		}
		ids, err := tl.ListGalleryImageIDs(ctx, img.GalleryID)
		if err != nil {
			return err
		}
		for order, id := range ids {
			if err := tl.SetImageSortOrder(ctx, img.GalleryID, id, order); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListImages returns the gallery images in display order.
func (s *Service) ListImages(ctx context.Context, galleryID uint, activeOnly bool) ([]model.GalleryImage, error) {
	return s.logic.ListGalleryImages(ctx, galleryID, activeOnly)
}

// ReorderImages assigns sort orders 0..n-1 following orderedIDs, which must
// be a permutation of the gallery's image ids. All updates share one
// transaction; any failure leaves the previous order intact.
func (s *Service) ReorderImages(ctx context.Context, galleryID uint, orderedIDs []uint) error {
	if _, err := s.logic.GetGallery(ctx, galleryID); err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, lockKeyGallery(galleryID))
	if err != nil {
		return fmt.Errorf("lock gallery %d: %w", galleryID, err)
	}
	defer unlock()

	current, err := s.logic.ListGalleryImageIDs(ctx, galleryID)
	if err != nil {
		return err
	}
	if !isPermutation(current, orderedIDs) {
		return ErrInvalidOrder
	}

	err = s.logic.Transaction(ctx, func(tl *Logic) error {
		for order, id := range orderedIDs {
			if err := tl.SetImageSortOrder(ctx, galleryID, id, order); err != nil {
				return fmt.Errorf("image %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		hlog.CtxErrorf(ctx, "reorder gallery %d rolled back: %v", galleryID, err)
		return fmt.Errorf("reorder gallery %d: %w", galleryID, err)
	}
	return nil
}

// --------------------- Gallery helpers ---------------------

func applyGalleryInput(g *model.Gallery, input *GalleryInput) {
	g.Name = input.Name
	g.Description = input.Description
	if input.Layout != "" {
		g.Layout = input.Layout
	}
	if input.Settings != nil {
		g.Settings = datatypes.JSONMap(input.Settings)
	}
	if input.IsActive != nil {
		g.IsActive = *input.IsActive
	}
	g.IsFeatured = input.IsFeatured
	g.SortOrder = input.SortOrder
}

// probeImage fills missing MIME type and dimensions from the stored object.
func (s *Service) probeImage(ctx context.Context, img *model.GalleryImage) {
	disk, err := s.disks.Disk(img.Disk)
	if err != nil {
		return
	}
	rc, err := disk.GetObject(ctx, img.Path)
	if err != nil {
		hlog.CtxWarnf(ctx, "probe gallery image %s:%s: %v", img.Disk, img.Path, err)
		return
	}
	defer func() { _ = rc.Close() }()

	head, err := io.ReadAll(io.LimitReader(rc, sniffLength))
	if err != nil {
		return
	}
	if img.MimeType == "" {
		img.MimeType = validator.DetectMimeType(head, "")
	}
	if img.Width > 0 && img.Height > 0 {
		return
	}
	cfg, _, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), rc))
	if err != nil {
		hlog.CtxDebugf(ctx, "no dimensions for %s:%s: %v", img.Disk, img.Path, err)
		return
	}
	img.Width, img.Height = cfg.Width, cfg.Height
}

func isPermutation(current, ordered []uint) bool {
	if len(current) != len(ordered) {
		return false
	}
	seen := make(map[uint]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	for _, id := range ordered {
		if !seen[id] {
			return false
		}
		delete(seen, id)
	}
	return len(seen) == 0
}
