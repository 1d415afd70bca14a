package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gallery layouts.
const (
	LayoutGrid      = "grid"
	LayoutMasonry   = "masonry"
	LayoutCarousel  = "carousel"
	LayoutLightbox  = "lightbox"
	LayoutJustified = "justified"
)

// Link targets of gallery images.
const (
	LinkTargetSelf  = "_self"
	LinkTargetBlank = "_blank"
)

// Gallery is an ordered, named collection of images with layout settings.
// ScopeKey is unique over (tenant, slug).
type Gallery struct {
	ID          uint              `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
	TenantID    *uint             `gorm:"column:tenant_id;index:idx_gallery_tenant" json:"tenant_id,omitempty"`
	Name        string            `gorm:"column:name;type:varchar(255);not null" json:"name,omitempty"`
	Slug        string            `gorm:"column:slug;type:varchar(120);not null" json:"slug,omitempty"`
	ScopeKey    *string           `gorm:"column:scope_key;type:varchar(160);uniqueIndex:uk_gallery_scope" json:"-"`
	Description string            `gorm:"column:description;type:text" json:"description,omitempty"`
	Layout      string            `gorm:"column:layout;type:varchar(32)" json:"layout,omitempty"`
	Settings    datatypes.JSONMap `gorm:"column:settings" json:"settings,omitempty"`
	IsActive    bool              `gorm:"column:is_active" json:"is_active"`
	IsFeatured  bool              `gorm:"column:is_featured" json:"is_featured"`
	SortOrder   int               `gorm:"column:sort_order" json:"sort_order"`
}

// TableName overrides gorm to use image_galleries table.
func (Gallery) TableName() string {
	return "image_galleries"
}

// BeforeSave normalizes the tenant and refreshes the scope key.
func (g *Gallery) BeforeSave(tx *gorm.DB) error {
	g.TenantID = NormalizeTenant(g.TenantID)
	key := GalleryScopeKey(g.TenantID, g.Slug)
	g.ScopeKey = &key
	return nil
}

// GalleryScopeKey builds the unique key for a gallery slug within a tenant.
func GalleryScopeKey(tenantID *uint, slug string) string {
	return TenantKey(tenantID) + "|" + slug
}

// GalleryImage is a stored image belonging to a gallery. SortOrder is a
// dense 0..n-1 sequence within the gallery.
type GalleryImage struct {
	ID          uint              `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
	GalleryID   uint              `gorm:"column:gallery_id;not null;index:idx_gallery_image_order" json:"gallery_id,omitempty"`
	TenantID    *uint             `gorm:"column:tenant_id" json:"tenant_id,omitempty"`
	PublicToken string            `gorm:"column:public_token;type:varchar(64);not null;uniqueIndex:uk_gallery_image_token" json:"public_token,omitempty"`
	Disk        string            `gorm:"column:disk;type:varchar(32);not null" json:"disk,omitempty"`
	Path        string            `gorm:"column:path;type:varchar(1024);not null" json:"path,omitempty"`
	Filename    string            `gorm:"column:filename;type:varchar(255)" json:"filename,omitempty"`
	MimeType    string            `gorm:"column:mime_type;type:varchar(128)" json:"mime_type,omitempty"`
	Size        int64             `gorm:"column:size" json:"size,omitempty"`
	Width       int               `gorm:"column:width" json:"width,omitempty"`
	Height      int               `gorm:"column:height" json:"height,omitempty"`
	AltText     string            `gorm:"column:alt_text;type:varchar(512)" json:"alt_text,omitempty"`
	Title       string            `gorm:"column:title;type:varchar(255)" json:"title,omitempty"`
	Caption     string            `gorm:"column:caption;type:text" json:"caption,omitempty"`
	LinkURL     string            `gorm:"column:link_url;type:varchar(1024)" json:"link_url,omitempty"`
	LinkTarget  string            `gorm:"column:link_target;type:varchar(16)" json:"link_target,omitempty"`
	SortOrder   int               `gorm:"column:sort_order;index:idx_gallery_image_order" json:"sort_order"`
	IsActive    bool              `gorm:"column:is_active" json:"is_active"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
}

// TableName overrides gorm to use gallery_images table.
func (GalleryImage) TableName() string {
	return "gallery_images"
}

// BeforeSave stores the legacy zero tenant as NULL.
func (i *GalleryImage) BeforeSave(tx *gorm.DB) error {
	i.TenantID = NormalizeTenant(i.TenantID)
	return nil
}

// ThumbnailPath returns metadata.thumbnail.path, or "" when absent.
func (i *GalleryImage) ThumbnailPath() string {
	return thumbnailPath(i.Metadata)
}
