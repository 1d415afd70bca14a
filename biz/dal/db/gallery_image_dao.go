package db

import (
	"context"
	"errors"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

// GalleryImageDAO wraps CRUD and ordering operations for gallery images.
type GalleryImageDAO struct{}

func NewGalleryImageDAO() *GalleryImageDAO { return &GalleryImageDAO{} }

func (dao *GalleryImageDAO) Create(ctx context.Context, db *gorm.DB, img *model.GalleryImage) error {
	if img == nil {
		return errors.New("gallery image must not be nil")
	}
	if img.GalleryID == 0 || img.PublicToken == "" {
		return errors.New("gallery_id and public_token are required")
	}
	return db.WithContext(ctx).Create(img).Error
}

func (dao *GalleryImageDAO) Save(ctx context.Context, db *gorm.DB, img *model.GalleryImage) error {
	if img == nil || img.ID == 0 {
		return errors.New("gallery image must be persisted before save")
	}
	return db.WithContext(ctx).Save(img).Error
}

func (dao *GalleryImageDAO) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&model.GalleryImage{}).Error
}

func (dao *GalleryImageDAO) DeleteByGallery(ctx context.Context, db *gorm.DB, galleryID uint) error {
	return db.WithContext(ctx).Where("gallery_id = ?", galleryID).Delete(&model.GalleryImage{}).Error
}

func (dao *GalleryImageDAO) GetByID(ctx context.Context, db *gorm.DB, id uint) (*model.GalleryImage, error) {
	var img model.GalleryImage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// ListByGallery returns images in display order.
func (dao *GalleryImageDAO) ListByGallery(ctx context.Context, db *gorm.DB, galleryID uint, activeOnly bool) ([]model.GalleryImage, error) {
	tx := db.WithContext(ctx).Where("gallery_id = ?", galleryID)
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var images []model.GalleryImage
	if err := tx.Order("sort_order ASC, id ASC").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// ListIDs returns image ids of a gallery in display order.
func (dao *GalleryImageDAO) ListIDs(ctx context.Context, db *gorm.DB, galleryID uint) ([]uint, error) {
	var ids []uint
	if err := db.WithContext(ctx).
		Model(&model.GalleryImage{}).
		Where("gallery_id = ?", galleryID).
		Order("sort_order ASC, id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateSortOrder sets one image's position. A missing row is an error so
// a reorder batch cannot silently skip it.
func (dao *GalleryImageDAO) UpdateSortOrder(ctx context.Context, db *gorm.DB, galleryID, id uint, order int) error {
	result := db.WithContext(ctx).
		Model(&model.GalleryImage{}).
		Where("id = ? AND gallery_id = ?", id, galleryID).
		Update("sort_order", order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (dao *GalleryImageDAO) CountByGallery(ctx context.Context, db *gorm.DB, galleryID uint) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&model.GalleryImage{}).
		Where("gallery_id = ?", galleryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TokenExists checks if a gallery image already uses token.
func (dao *GalleryImageDAO) TokenExists(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&model.GalleryImage{}).
		Where("public_token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
