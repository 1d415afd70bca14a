package db

import (
	"context"
	"testing"

	"github.com/yi-nology/mediahub/biz/dal/model"
)

func TestMediaDAO_Create(t *testing.T) {
	db := SetupTestDB(t)
	dao := NewMediaDAO()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		m := &model.MediaAsset{PublicToken: "AAAAAAAAAAAAAAAA", Disk: "media", Path: "2024/05/a.png", TenantID: model.Tenant(5)}
		if err := dao.Create(ctx, db, m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if m.ID == 0 {
			t.Error("Expected ID to be set after creation")
		}
		found, err := dao.GetByToken(ctx, db, "AAAAAAAAAAAAAAAA")
		if err != nil {
			t.Fatalf("GetByToken failed: %v", err)
		}
		if found.Path != "2024/05/a.png" || found.TenantID == nil || *found.TenantID != 5 {
			t.Errorf("Unexpected record: %+v", found)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		if err := dao.Create(ctx, db, &model.MediaAsset{Disk: "media"}); err == nil {
			t.Error("Expected error for empty public_token")
		}
	})

	t.Run("DuplicateToken", func(t *testing.T) {
		m := &model.MediaAsset{PublicToken: "BBBBBBBBBBBBBBBB", Disk: "media", Path: "b.png"}
		if err := dao.Create(ctx, db, m); err != nil {
			t.Fatalf("First create failed: %v", err)
		}
		dup := &model.MediaAsset{PublicToken: "BBBBBBBBBBBBBBBB", TenantID: model.Tenant(9), Disk: "local", Path: "c.png"}
		err := dao.Create(ctx, db, dup)
		if !IsUniqueViolation(err) {
			t.Fatalf("Expected unique violation across tenants, got %v", err)
		}
	})

	t.Run("ZeroTenantStoredAsNull", func(t *testing.T) {
		zero := uint(0)
		m := &model.MediaAsset{PublicToken: "CCCCCCCCCCCCCCCC", Disk: "media", Path: "z.png", TenantID: &zero}
		if err := dao.Create(ctx, db, m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		var count int64
		db.Model(&model.MediaAsset{}).Where("id = ? AND tenant_id IS NULL", m.ID).Count(&count)
		if count != 1 {
			t.Errorf("Expected tenant 0 to be stored as NULL")
		}
	})
}

func TestMediaDAO_ListAndCount(t *testing.T) {
	db := SetupTestDB(t)
	dao := NewMediaDAO()
	ctx := context.Background()

	folderA, folderB := uint(1), uint(2)
	rows := []*model.MediaAsset{
		{PublicToken: "t1xxxxxxxxxxxxxx", TenantID: model.Tenant(5), Disk: "media", FolderID: &folderA, Path: "1"},
		{PublicToken: "t2xxxxxxxxxxxxxx", TenantID: model.Tenant(5), Disk: "media", FolderID: &folderB, Path: "2"},
		{PublicToken: "t3xxxxxxxxxxxxxx", TenantID: model.Tenant(5), Disk: "r2", Path: "3"},
		{PublicToken: "t4xxxxxxxxxxxxxx", Disk: "media", Path: "4"},
	}
	for _, m := range rows {
		if err := dao.Create(ctx, db, m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, total, err := dao.List(ctx, db, MediaFilter{TenantID: model.Tenant(5), Disk: "media"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("Expected 2 tenant media rows, got total=%d len=%d", total, len(list))
	}

	list, total, err = dao.List(ctx, db, MediaFilter{})
	if err != nil || total != 1 || list[0].PublicToken != "t4xxxxxxxxxxxxxx" {
		t.Errorf("Expected only the global row, got %d %v", total, err)
	}

	count, err := dao.CountByFolders(ctx, db, []uint{folderA, folderB})
	if err != nil || count != 2 {
		t.Errorf("Expected 2 rows in folders, got %d %v", count, err)
	}
}
