package db

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Models lists every table owned by the media core.
func Models() []interface{} {
	return []interface{}{
		&model.MediaAsset{},
		&model.Folder{},
		&model.Gallery{},
		&model.GalleryImage{},
		&model.StorageOrphan{},
	}
}

// tenantTables hold a nullable tenant_id column.
var tenantTables = []string{
	model.MediaAsset{}.TableName(),
	model.Folder{}.TableName(),
	model.Gallery{}.TableName(),
	model.GalleryImage{}.TableName(),
}

// Migrate creates or updates the schema, then normalizes legacy tenants and
// backfills the uniqueness keys.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if _, err := NormalizeLegacyTenants(ctx, db); err != nil {
		return err
	}
	return BackfillKeys(ctx, db)
}

// NormalizeLegacyTenants rewrites tenant_id = 0 to NULL so that global rows
// have a single representation. It returns the number of rows changed per table.
func NormalizeLegacyTenants(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	changed := make(map[string]int64, len(tenantTables))
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tenantTables {
			result := tx.Table(table).Where("tenant_id = ?", 0).Update("tenant_id", gorm.Expr("NULL"))
			if result.Error != nil {
				return fmt.Errorf("normalize tenants in %s: %w", table, result.Error)
			}
			if result.RowsAffected > 0 {
				hlog.CtxInfof(ctx, "normalized %d legacy global rows in %s", result.RowsAffected, table)
			}
			changed[table] = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// BackfillKeys recomputes folder sibling keys and gallery scope keys that are
// missing or stale. Rows that collide with an existing key are reported and
// left untouched.
func BackfillKeys(ctx context.Context, db *gorm.DB) error {
	var errs error

	var folders []model.Folder
	if err := db.WithContext(ctx).FindInBatches(&folders, 200, func(tx *gorm.DB, _ int) error {
		for i := range folders {
			f := &folders[i]
			key := model.FolderSiblingKey(f.Disk, f.TenantID, f.ParentID, f.Slug)
			if f.SiblingKey != nil && *f.SiblingKey == key {
				continue
			}
			if err := db.WithContext(ctx).Model(&model.Folder{}).Where("id = ?", f.ID).
				UpdateColumn("sibling_key", key).Error; err != nil {
				hlog.CtxWarnf(ctx, "backfill sibling key for folder %d: %v", f.ID, err)
				errs = multierr.Append(errs, fmt.Errorf("folder %d: %w", f.ID, err))
			}
		}
		return nil
	}).Error; err != nil {
		return fmt.Errorf("scan folders: %w", err)
	}

	var galleries []model.Gallery
	if err := db.WithContext(ctx).FindInBatches(&galleries, 200, func(tx *gorm.DB, _ int) error {
		for i := range galleries {
			g := &galleries[i]
			key := model.GalleryScopeKey(g.TenantID, g.Slug)
			if g.ScopeKey != nil && *g.ScopeKey == key {
				continue
			}
			if err := db.WithContext(ctx).Model(&model.Gallery{}).Where("id = ?", g.ID).
				UpdateColumn("scope_key", key).Error; err != nil {
				hlog.CtxWarnf(ctx, "backfill scope key for gallery %d: %v", g.ID, err)
				errs = multierr.Append(errs, fmt.Errorf("gallery %d: %w", g.ID, err))
			}
		}
		return nil
	}).Error; err != nil {
		return fmt.Errorf("scan galleries: %w", err)
	}

	return errs
}
