package db

import (
	"context"
	"errors"
	"testing"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

func TestGalleryImageDAO_SortOrder(t *testing.T) {
	db := SetupTestDB(t)
	galleries := NewGalleryDAO()
	images := NewGalleryImageDAO()
	ctx := context.Background()

	g := &model.Gallery{Name: "Summer", Slug: "summer", Layout: model.LayoutGrid, IsActive: true}
	if err := galleries.Create(ctx, db, g); err != nil {
		t.Fatalf("Create gallery failed: %v", err)
	}
	for i, tok := range []string{"img1xxxxxxxxxxxx", "img2xxxxxxxxxxxx", "img3xxxxxxxxxxxx"} {
		img := &model.GalleryImage{GalleryID: g.ID, PublicToken: tok, Disk: "media", Path: tok, SortOrder: i, IsActive: true}
		if err := images.Create(ctx, db, img); err != nil {
			t.Fatalf("Create image failed: %v", err)
		}
	}

	ids, err := images.ListIDs(ctx, db, g.ID)
	if err != nil || len(ids) != 3 {
		t.Fatalf("ListIDs returned %v %v", ids, err)
	}

	if err := images.UpdateSortOrder(ctx, db, g.ID, ids[2], 0); err != nil {
		t.Fatalf("UpdateSortOrder failed: %v", err)
	}
	if err := images.UpdateSortOrder(ctx, db, g.ID+1, ids[0], 0); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Expected not found for foreign gallery, got %v", err)
	}

	n, err := images.CountByGallery(ctx, db, g.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountByGallery returned %d %v", n, err)
	}
}

func TestGalleryDAO_TenantScopes(t *testing.T) {
	db := SetupTestDB(t)
	dao := NewGalleryDAO()
	ctx := context.Background()

	for _, g := range []*model.Gallery{
		{TenantID: model.Tenant(5), Name: "Tenant", Slug: "tenant", IsActive: true, IsFeatured: true},
		{Name: "Global", Slug: "global", IsActive: true},
		{TenantID: model.Tenant(6), Name: "Other", Slug: "other", IsActive: true},
		{TenantID: model.Tenant(5), Name: "Hidden", Slug: "hidden"},
	} {
		if err := dao.Create(ctx, db, g); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := dao.ListForTenant(ctx, db, model.Tenant(5), GalleryFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("Expected tenant plus global galleries, got %d %v", len(all), err)
	}
	active, _ := dao.ListForTenant(ctx, db, model.Tenant(5), GalleryFilter{ActiveOnly: true})
	if len(active) != 2 {
		t.Errorf("Expected 2 active galleries, got %d", len(active))
	}
	featured, _ := dao.ListForTenant(ctx, db, model.Tenant(5), GalleryFilter{ActiveOnly: true, FeaturedOnly: true})
	if len(featured) != 1 || featured[0].Slug != "tenant" {
		t.Errorf("Unexpected featured galleries %v", featured)
	}
	global, _ := dao.ListForTenant(ctx, db, nil, GalleryFilter{})
	if len(global) != 1 || global[0].Slug != "global" {
		t.Errorf("Unexpected global galleries %v", global)
	}

	dup := &model.Gallery{TenantID: model.Tenant(5), Name: "Tenant again", Slug: "tenant"}
	if err := dao.Create(ctx, db, dup); !IsUniqueViolation(err) {
		t.Fatalf("Expected unique violation for slug in same tenant, got %v", err)
	}
}
