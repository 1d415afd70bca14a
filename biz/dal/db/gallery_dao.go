package db

import (
	"context"
	"errors"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

// GalleryFilter narrows tenant gallery listings.
type GalleryFilter struct {
	ActiveOnly   bool
	FeaturedOnly bool
}

// GalleryDAO wraps CRUD operations for galleries.
type GalleryDAO struct{}

func NewGalleryDAO() *GalleryDAO { return &GalleryDAO{} }

func (dao *GalleryDAO) Create(ctx context.Context, db *gorm.DB, g *model.Gallery) error {
	if g == nil {
		return errors.New("gallery must not be nil")
	}
	if g.Slug == "" {
		return errors.New("slug is required")
	}
	return db.WithContext(ctx).Create(g).Error
}

func (dao *GalleryDAO) Save(ctx context.Context, db *gorm.DB, g *model.Gallery) error {
	if g == nil || g.ID == 0 {
		return errors.New("gallery must be persisted before save")
	}
	return db.WithContext(ctx).Save(g).Error
}

func (dao *GalleryDAO) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&model.Gallery{}).Error
}

func (dao *GalleryDAO) GetByID(ctx context.Context, db *gorm.DB, id uint) (*model.Gallery, error) {
	var g model.Gallery
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByScopeKey fetches the gallery holding a (tenant, slug) pair.
func (dao *GalleryDAO) GetByScopeKey(ctx context.Context, db *gorm.DB, scopeKey string) (*model.Gallery, error) {
	var g model.Gallery
	if err := db.WithContext(ctx).Where("scope_key = ?", scopeKey).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ScopeKeyExists checks the scope key, ignoring excludeID when non-zero.
func (dao *GalleryDAO) ScopeKeyExists(ctx context.Context, db *gorm.DB, scopeKey string, excludeID uint) (bool, error) {
	tx := db.WithContext(ctx).Model(&model.Gallery{}).Where("scope_key = ?", scopeKey)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForTenant returns the tenant's galleries plus global ones.
func (dao *GalleryDAO) ListForTenant(ctx context.Context, db *gorm.DB, tenantID *uint, filter GalleryFilter) ([]model.Gallery, error) {
	tx := db.WithContext(ctx).Scopes(TenantOrGlobalScope(tenantID))
	if filter.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if filter.FeaturedOnly {
		tx = tx.Where("is_featured = ?", true)
	}

	var galleries []model.Gallery
	if err := tx.Order("sort_order ASC, name ASC, id ASC").Find(&galleries).Error; err != nil {
		return nil, err
	}
	return galleries, nil
}
