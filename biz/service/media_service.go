package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/pkg/slug"
	"github.com/yi-nology/mediahub/pkg/storage"
	"github.com/yi-nology/mediahub/pkg/validator"
	"gorm.io/datatypes"
)

// sniffLength is the number of leading bytes read for MIME detection.
const sniffLength = 3072

// RegisterInput describes a file the caller already wrote to Disk at Path.
type RegisterInput struct {
	TenantID *uint
	UserID   *uint
	FolderID *uint
	Disk     string `validate:"required,diskname"`
	Path     string `validate:"required,max=1024"`
	Filename string `validate:"required,max=255"`
	MimeType string `validate:"max=128"`
	Size     int64  `validate:"gte=0"`
	AltText  string `validate:"max=512"`
	Caption  string
	Metadata map[string]interface{}
}

// UploadInput captures metadata and payload for uploads. An empty Disk
// means the registry default.
type UploadInput struct {
	TenantID    *uint
	UserID      *uint
	FolderID    *uint
	Disk        string
	Filename    string `validate:"required,max=255"`
	ContentType string
	Data        []byte
	AltText     string `validate:"max=512"`
	Caption     string
}

// UpdateMediaInput lists editable descriptive fields; nil leaves a field as is.
type UpdateMediaInput struct {
	Filename *string `validate:"omitempty,min=1,max=255"`
	AltText  *string `validate:"omitempty,max=512"`
	Caption  *string
}

// --------------------- Media operations ---------------------

// Register creates a media record with a fresh public token.
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*model.MediaAsset, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid media: %w", err)
	}
	disk, err := s.disks.Disk(input.Disk)
	if err != nil {
		return nil, err
	}
	tenantID := model.NormalizeTenant(input.TenantID)
	if input.FolderID != nil {
		if _, err := s.folderInScope(ctx, *input.FolderID, tenantID, input.Disk); err != nil {
			return nil, err
		}
	}

	mimeType := validator.NormalizeMimeType(input.MimeType)
	if mimeType == "" {
		mimeType = s.sniffMimeType(ctx, disk, input.Path)
	}

	m := &model.MediaAsset{
		TenantID: tenantID,
		UserID:   input.UserID,
		FolderID: input.FolderID,
		Disk:     input.Disk,
		Path:     strings.TrimLeft(input.Path, "/"),
		Filename: input.Filename,
		MimeType: mimeType,
		Size:     input.Size,
		AltText:  input.AltText,
		Caption:  input.Caption,
	}
	if len(input.Metadata) > 0 {
		m.Metadata = datatypes.JSONMap(input.Metadata)
	}
	if err := s.createMedia(ctx, s.logic, m); err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return m, nil
}

// Upload validates and writes Data to the disk, then registers it. The
// object is removed again when the record cannot be created.
func (s *Service) Upload(ctx context.Context, input *UploadInput) (*model.MediaAsset, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid upload: %w", err)
	}
	diskName := input.Disk
	if diskName == "" {
		diskName = s.disks.Default()
	}
	disk, err := s.disks.Disk(diskName)
	if err != nil {
		return nil, err
	}

	head := input.Data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	mimeType, err := s.upload.Validate(int64(len(input.Data)), input.ContentType, head)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.%s", s.now().Format("2006/01"), uuid.NewString(), slug.Extension(input.Filename))
	if err := disk.PutObject(ctx, key, bytes.NewReader(input.Data), mimeType, int64(len(input.Data))); err != nil {
		s.metrics.PhysicalFailure(diskName, "put")
		return nil, fmt.Errorf("upload file: %w", err)
	}

	m, err := s.Register(ctx, &RegisterInput{
		TenantID: input.TenantID,
		UserID:   input.UserID,
		FolderID: input.FolderID,
		Disk:     diskName,
		Path:     key,
		Filename: input.Filename,
		MimeType: mimeType,
		Size:     int64(len(input.Data)),
		AltText:  input.AltText,
		Caption:  input.Caption,
	})
	if err != nil {
		// Rollback: delete uploaded file
		if delErr := disk.DeleteObject(ctx, key); delErr != nil {
			hlog.CtxWarnf(ctx, "rollback upload %s:%s failed: %v", diskName, key, delErr)
			s.recordOrphan(ctx, &model.StorageOrphan{Disk: diskName, Path: key, Operation: model.OrphanDelete, Reason: delErr.Error()})
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) GetMedia(ctx context.Context, id uint) (*model.MediaAsset, error) {
	return s.logic.GetMedia(ctx, id)
}

// FindByToken looks up a record by its public token.
func (s *Service) FindByToken(ctx context.Context, token string) (*model.MediaAsset, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMediaNotFound
	}
	return s.logic.GetMediaByToken(ctx, token)
}

// FindBySEOFilename extracts the token from {slug}-{token}.{ext} and looks
// it up. Malformed input is reported as not found.
func (s *Service) FindBySEOFilename(ctx context.Context, seoFilename string) (*model.MediaAsset, error) {
	_, token, _, ok := slug.ParseSEOFilename(path.Base(strings.TrimSpace(seoFilename)))
	if !ok {
		return nil, ErrMediaNotFound
	}
	return s.logic.GetMediaByToken(ctx, token)
}

func (s *Service) ListMedia(ctx context.Context, filter db.MediaFilter) ([]model.MediaAsset, int64, error) {
	return s.logic.ListMedia(ctx, filter)
}

// UpdateMedia edits descriptive fields. A new filename resets the cached
// slug so SEO URLs follow the rename; the token stays.
func (s *Service) UpdateMedia(ctx context.Context, id uint, input *UpdateMediaInput) (*model.MediaAsset, error) {
	if input == nil {
		return nil, errors.New("input required")
	}
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid media: %w", err)
	}
	m, err := s.logic.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Filename != nil && *input.Filename != m.Filename {
		m.Filename = *input.Filename
		m.Slug = ""
		m.SEOFilename = ""
	}
	if input.AltText != nil {
		m.AltText = *input.AltText
	}
	if input.Caption != nil {
		m.Caption = *input.Caption
	}
	if err := s.logic.SaveMedia(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MoveToFolder reassigns the folder; nil detaches the record. Only folders
// of the same tenant and disk are accepted.
func (s *Service) MoveToFolder(ctx context.Context, mediaID uint, folderID *uint) (*model.MediaAsset, error) {
	m, err := s.logic.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if folderID != nil {
		if _, err := s.folderInScope(ctx, *folderID, m.TenantID, m.Disk); err != nil {
			return nil, err
		}
	}
	if err := s.logic.UpdateMediaColumns(ctx, m.ID, map[string]interface{}{"folder_id": folderID}); err != nil {
		return nil, err
	}
	m.FolderID = folderID
	return m, nil
}

// CopyToFolder duplicates a record into a folder of the same disk. The new
// record gets a fresh token and a "-copy-{unix}" name. The physical copy is
// best effort: a failure is logged and queued, and the record is kept.
func (s *Service) CopyToFolder(ctx context.Context, mediaID, folderID uint) (*model.MediaAsset, error) {
	src, err := s.logic.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	folder, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.Disk != src.Disk {
		return nil, ErrCrossDiskCopy
	}
	if !model.SameTenant(folder.TenantID, src.TenantID) {
		return nil, ErrFolderScopeMismatch
	}

	suffix := fmt.Sprintf("-copy-%d", s.now().Unix())
	disk, diskErr := s.disks.Disk(src.Disk)
	dstPath := copyName(src.Path, suffix)
	if diskErr == nil {
		dstPath = s.freeObjectKey(ctx, disk, dstPath)
	}

	dup := &model.MediaAsset{
		TenantID: src.TenantID,
		UserID:   src.UserID,
		FolderID: &folder.ID,
		Disk:     src.Disk,
		Path:     dstPath,
		Filename: copyName(src.Filename, suffix),
		MimeType: src.MimeType,
		Size:     src.Size,
		AltText:  src.AltText,
		Caption:  src.Caption,
		Metadata: copyMetadata(src.Metadata),
	}
	if err := s.createMedia(ctx, s.logic, dup); err != nil {
		return nil, fmt.Errorf("create copy: %w", err)
	}

	if diskErr != nil {
		hlog.CtxWarnf(ctx, "copy of media %d not written: %v", src.ID, diskErr)
		s.recordOrphan(ctx, &model.StorageOrphan{Disk: src.Disk, Path: dstPath, SourcePath: src.Path, Operation: model.OrphanCopy, Reason: diskErr.Error(), MediaID: &dup.ID})
		return dup, nil
	}
	if err := disk.CopyObject(ctx, src.Path, dstPath); err != nil {
		hlog.CtxWarnf(ctx, "physical copy %s:%s -> %s failed: %v", src.Disk, src.Path, dstPath, err)
		s.recordOrphan(ctx, &model.StorageOrphan{Disk: src.Disk, Path: dstPath, SourcePath: src.Path, Operation: model.OrphanCopy, Reason: err.Error(), MediaID: &dup.ID})
	}
	return dup, nil
}

// DeleteWithFile removes the physical object and thumbnail first, then the
// record. Physical failures never block the row deletion; only a database
// failure is returned.
func (s *Service) DeleteWithFile(ctx context.Context, mediaID uint) error {
	m, err := s.logic.GetMedia(ctx, mediaID)
	if err != nil {
		return err
	}
	if err := s.deletePhysical(ctx, m.Disk, &m.ID, m.Path, m.ThumbnailPath()); err != nil {
		hlog.CtxWarnf(ctx, "media %d deleted with physical cleanup pending: %v", m.ID, err)
	}
	if err := s.logic.DeleteMedia(ctx, m.ID); err != nil {
		return fmt.Errorf("delete media row: %w", err)
	}
	if n, err := s.logic.DropPendingCopies(ctx, m.ID); err != nil {
		hlog.CtxWarnf(ctx, "drop pending copies of media %d: %v", m.ID, err)
	} else if n > 0 {
		hlog.CtxInfof(ctx, "dropped %d pending copies of deleted media %d", n, m.ID)
	}
	return nil
}

// --------------------- Media helpers ---------------------

// folderInScope loads a folder and checks it belongs to tenant and disk.
func (s *Service) folderInScope(ctx context.Context, folderID uint, tenantID *uint, disk string) (*model.Folder, error) {
	folder, err := s.logic.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.Disk != disk || !model.SameTenant(folder.TenantID, tenantID) {
		return nil, ErrFolderScopeMismatch
	}
	return folder, nil
}

func (s *Service) sniffMimeType(ctx context.Context, disk storage.Disk, key string) string {
	rc, err := disk.GetObject(ctx, key)
	if err != nil {
		hlog.CtxWarnf(ctx, "mime detection skipped for %s:%s: %v", disk.Name(), key, err)
		return "application/octet-stream"
	}
	defer func() { _ = rc.Close() }()
	head, err := io.ReadAll(io.LimitReader(rc, sniffLength))
	if err != nil {
		hlog.CtxWarnf(ctx, "mime detection read %s:%s: %v", disk.Name(), key, err)
		return "application/octet-stream"
	}
	return validator.DetectMimeType(head, "")
}

// freeObjectKey appends -1, -2, ... while key is taken on disk. Lookup
// errors end the probe with the current candidate.
func (s *Service) freeObjectKey(ctx context.Context, disk storage.Disk, key string) string {
	ext := path.Ext(key)
	base := strings.TrimSuffix(key, ext)
	candidate, err := slug.Unique(base, func(c string) (bool, error) {
		exists, err := disk.ObjectExists(ctx, c+ext)
		if err != nil {
			hlog.CtxWarnf(ctx, "probe %s:%s: %v", disk.Name(), c+ext, err)
			return false, nil
		}
		return exists, nil
	})
	if err != nil {
		return key
	}
	return candidate + ext
}

// copyName inserts suffix before the extension: a/b.png -> a/b-copy-1.png.
func copyName(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}

// copyMetadata clones metadata without the thumbnail, which belongs to the
// source object.
func copyMetadata(src datatypes.JSONMap) datatypes.JSONMap {
	if len(src) == 0 {
		return nil
	}
	dst := make(datatypes.JSONMap, len(src))
	for k, v := range src {
		if k == "thumbnail" || strings.HasPrefix(k, "thumbnail.") {
			continue
		}
		dst[k] = v
	}
	return dst
}
