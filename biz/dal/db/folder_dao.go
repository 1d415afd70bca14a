package db

import (
	"context"
	"errors"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

// FolderDAO wraps CRUD and tree queries for media folders.
type FolderDAO struct{}

func NewFolderDAO() *FolderDAO { return &FolderDAO{} }

// Create persists a new folder. A taken sibling slug fails with a unique
// violation.
func (dao *FolderDAO) Create(ctx context.Context, db *gorm.DB, f *model.Folder) error {
	if f == nil {
		return errors.New("folder must not be nil")
	}
	if f.Disk == "" {
		return errors.New("disk is required")
	}
	return db.WithContext(ctx).Create(f).Error
}

// Save writes every column of an existing folder, refreshing its sibling key.
func (dao *FolderDAO) Save(ctx context.Context, db *gorm.DB, f *model.Folder) error {
	if f == nil || f.ID == 0 {
		return errors.New("folder must be persisted before save")
	}
	return db.WithContext(ctx).Save(f).Error
}

func (dao *FolderDAO) UpdatePath(ctx context.Context, db *gorm.DB, id uint, path string) error {
	return db.WithContext(ctx).
		Model(&model.Folder{}).
		Where("id = ?", id).
		Update("path", path).Error
}

func (dao *FolderDAO) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&model.Folder{}).Error
}

func (dao *FolderDAO) GetByID(ctx context.Context, db *gorm.DB, id uint) (*model.Folder, error) {
	var f model.Folder
	if err := db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// FindRoot fetches the root of a (tenant, disk) tree.
func (dao *FolderDAO) FindRoot(ctx context.Context, db *gorm.DB, tenantID *uint, disk string) (*model.Folder, error) {
	var f model.Folder
	if err := db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("disk = ? AND parent_id IS NULL", disk).
		Order("id ASC").
		First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// ListChildren returns direct children ordered by name.
func (dao *FolderDAO) ListChildren(ctx context.Context, db *gorm.DB, parentID uint) ([]model.Folder, error) {
	var folders []model.Folder
	if err := db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("name ASC, id ASC").
		Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// ListDescendants returns every folder below f using the materialized path.
func (dao *FolderDAO) ListDescendants(ctx context.Context, db *gorm.DB, f *model.Folder) ([]model.Folder, error) {
	var folders []model.Folder
	if err := db.WithContext(ctx).
		Scopes(TenantScope(f.TenantID)).
		Where("disk = ? AND id <> ? AND path LIKE ?", f.Disk, f.ID, f.Path+"%").
		Order("path ASC").
		Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// ListByScope returns the whole tree of a (tenant, disk) pair in path order.
func (dao *FolderDAO) ListByScope(ctx context.Context, db *gorm.DB, tenantID *uint, disk string) ([]model.Folder, error) {
	var folders []model.Folder
	if err := db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("disk = ?", disk).
		Order("path ASC").
		Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// SiblingSlugExists checks the sibling key, ignoring excludeID when non-zero.
func (dao *FolderDAO) SiblingSlugExists(ctx context.Context, db *gorm.DB, siblingKey string, excludeID uint) (bool, error) {
	tx := db.WithContext(ctx).Model(&model.Folder{}).Where("sibling_key = ?", siblingKey)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (dao *FolderDAO) CountChildren(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&model.Folder{}).
		Where("parent_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
