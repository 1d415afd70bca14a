package db

import (
	"context"
	"errors"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

// OrphanDAO persists the storage reconciliation log.
type OrphanDAO struct{}

func NewOrphanDAO() *OrphanDAO { return &OrphanDAO{} }

func (dao *OrphanDAO) Create(ctx context.Context, db *gorm.DB, o *model.StorageOrphan) error {
	if o == nil {
		return errors.New("orphan must not be nil")
	}
	return db.WithContext(ctx).Create(o).Error
}

// List returns the oldest entries first.
func (dao *OrphanDAO) List(ctx context.Context, db *gorm.DB, limit int) ([]model.StorageOrphan, error) {
	if limit <= 0 {
		limit = 100
	}
	var orphans []model.StorageOrphan
	if err := db.WithContext(ctx).Order("id ASC").Limit(limit).Find(&orphans).Error; err != nil {
		return nil, err
	}
	return orphans, nil
}

func (dao *OrphanDAO) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&model.StorageOrphan{}).Error
}

// DeleteForMedia drops the entries of one operation queued for a media row.
func (dao *OrphanDAO) DeleteForMedia(ctx context.Context, db *gorm.DB, mediaID uint, operation string) (int64, error) {
	res := db.WithContext(ctx).
		Where("media_id = ? AND operation = ?", mediaID, operation).
		Delete(&model.StorageOrphan{})
	return res.RowsAffected, res.Error
}

// RecordAttempt bumps the attempt counter and stores the latest failure.
func (dao *OrphanDAO) RecordAttempt(ctx context.Context, db *gorm.DB, id uint, reason string) error {
	return db.WithContext(ctx).
		Model(&model.StorageOrphan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts": gorm.Expr("attempts + 1"),
			"reason":   reason,
		}).Error
}
