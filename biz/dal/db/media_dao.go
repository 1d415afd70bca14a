package db

import (
	"context"
	"errors"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

// MediaFilter selects media rows for listing.
type MediaFilter struct {
	TenantID *uint
	Disk     string
	FolderID *uint
	Page     int
	PageSize int
}

// MediaDAO handles CRUD operations for media assets.
type MediaDAO struct{}

func NewMediaDAO() *MediaDAO { return &MediaDAO{} }

// Create persists a new media asset. The public token must already be set.
func (dao *MediaDAO) Create(ctx context.Context, db *gorm.DB, m *model.MediaAsset) error {
	if m == nil {
		return errors.New("media must not be nil")
	}
	if m.PublicToken == "" {
		return errors.New("public_token is required")
	}
	return db.WithContext(ctx).Create(m).Error
}

// Save writes every column of an existing asset.
func (dao *MediaDAO) Save(ctx context.Context, db *gorm.DB, m *model.MediaAsset) error {
	if m == nil || m.ID == 0 {
		return errors.New("media must be persisted before save")
	}
	return db.WithContext(ctx).Save(m).Error
}

// UpdateColumns updates the given columns without touching the others.
func (dao *MediaDAO) UpdateColumns(ctx context.Context, db *gorm.DB, id uint, values map[string]interface{}) error {
	result := db.WithContext(ctx).
		Model(&model.MediaAsset{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (dao *MediaDAO) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&model.MediaAsset{}).Error
}

func (dao *MediaDAO) GetByID(ctx context.Context, db *gorm.DB, id uint) (*model.MediaAsset, error) {
	var m model.MediaAsset
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (dao *MediaDAO) GetByToken(ctx context.Context, db *gorm.DB, token string) (*model.MediaAsset, error) {
	var m model.MediaAsset
	if err := db.WithContext(ctx).Where("public_token = ?", token).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// TokenExists checks if a media asset already uses token.
func (dao *MediaDAO) TokenExists(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&model.MediaAsset{}).
		Where("public_token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one page of assets and the total count of the filter.
func (dao *MediaDAO) List(ctx context.Context, db *gorm.DB, filter MediaFilter) ([]model.MediaAsset, int64, error) {
	tx := db.WithContext(ctx).Model(&model.MediaAsset{}).Scopes(TenantScope(filter.TenantID))
	if filter.Disk != "" {
		tx = tx.Where("disk = ?", filter.Disk)
	}
	if filter.FolderID != nil {
		tx = tx.Where("folder_id = ?", *filter.FolderID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assets []model.MediaAsset
	if err := tx.Scopes(Paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&assets).Error; err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// CountByFolders counts assets directly inside any of the folders.
func (dao *MediaDAO) CountByFolders(ctx context.Context, db *gorm.DB, folderIDs []uint) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := db.WithContext(ctx).
		Model(&model.MediaAsset{}).
		Where("folder_id IN ?", folderIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
