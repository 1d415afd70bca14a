package db

import (
	"context"
	"testing"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

func TestMigrateNormalizesLegacyTenants(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	zero := uint(0)

	// Legacy rows bypass the hooks that would normalize them on write.
	raw := db.Session(&gorm.Session{SkipHooks: true})
	folder := &model.Folder{TenantID: &zero, Disk: "media", Path: model.RootPath}
	if err := raw.Create(folder).Error; err != nil {
		t.Fatalf("seed folder: %v", err)
	}
	gallery := &model.Gallery{TenantID: &zero, Name: "Legacy", Slug: "legacy"}
	if err := raw.Create(gallery).Error; err != nil {
		t.Fatalf("seed gallery: %v", err)
	}
	media := &model.MediaAsset{TenantID: &zero, PublicToken: "legacyxxxxxxxxxx", Disk: "local", Path: "a.png"}
	if err := raw.Create(media).Error; err != nil {
		t.Fatalf("seed media: %v", err)
	}

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	var count int64
	for _, table := range tenantTables {
		db.Table(table).Where("tenant_id = ?", 0).Count(&count)
		if count != 0 {
			t.Errorf("Expected no zero tenants left in %s, got %d", table, count)
		}
	}

	f, err := NewFolderDAO().FindRoot(ctx, db, nil, "media")
	if err != nil {
		t.Fatalf("FindRoot failed: %v", err)
	}
	if f.SiblingKey == nil || *f.SiblingKey != "media|g|root|" {
		t.Errorf("Expected backfilled sibling key, got %v", f.SiblingKey)
	}
	g, err := NewGalleryDAO().GetByScopeKey(ctx, db, "g|legacy")
	if err != nil || g.ID != gallery.ID {
		t.Errorf("Expected backfilled scope key, got %v %v", g, err)
	}

	// A second global root now collides with the normalized one.
	dup := &model.Folder{Disk: "media", Path: model.RootPath}
	if err := NewFolderDAO().Create(ctx, db, dup); !IsUniqueViolation(err) {
		t.Errorf("Expected duplicate global root to be rejected, got %v", err)
	}
}
