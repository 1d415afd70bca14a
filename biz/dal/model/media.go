package model

import (
	"path"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MediaAsset stores metadata for one stored file. PublicToken is the only
// secret behind non-SEO URLs and is unique across tenants.
type MediaAsset struct {
	ID          uint              `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
	PublicToken string            `gorm:"column:public_token;type:varchar(64);not null;uniqueIndex:uk_media_public_token" json:"public_token,omitempty"`
	TenantID    *uint             `gorm:"column:tenant_id;index:idx_media_scope" json:"tenant_id,omitempty"`
	UserID      *uint             `gorm:"column:user_id" json:"user_id,omitempty"`
	FolderID    *uint             `gorm:"column:folder_id;index:idx_media_folder" json:"folder_id,omitempty"`
	Disk        string            `gorm:"column:disk;type:varchar(32);not null;index:idx_media_scope" json:"disk,omitempty"`
	Path        string            `gorm:"column:path;type:varchar(1024);not null" json:"path,omitempty"`
	Filename    string            `gorm:"column:filename;type:varchar(255)" json:"filename,omitempty"`
	Slug        string            `gorm:"column:slug;type:varchar(100)" json:"slug,omitempty"`
	SEOFilename string            `gorm:"column:seo_filename;type:varchar(200);index:idx_media_seo_filename" json:"seo_filename,omitempty"`
	MimeType    string            `gorm:"column:mime_type;type:varchar(128)" json:"mime_type,omitempty"`
	Size        int64             `gorm:"column:size" json:"size,omitempty"`
	AltText     string            `gorm:"column:alt_text;type:varchar(512)" json:"alt_text,omitempty"`
	Caption     string            `gorm:"column:caption;type:text" json:"caption,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
}

// TableName overrides gorm to use media table.
func (MediaAsset) TableName() string {
	return "media"
}

// BeforeSave stores the legacy zero tenant as NULL.
func (m *MediaAsset) BeforeSave(tx *gorm.DB) error {
	m.TenantID = NormalizeTenant(m.TenantID)
	return nil
}

// ThumbnailPath returns metadata.thumbnail.path, or "" when absent.
func (m *MediaAsset) ThumbnailPath() string {
	return thumbnailPath(m.Metadata)
}

// SetThumbnail records a generated thumbnail in the metadata.
func (m *MediaAsset) SetThumbnail(p string, width, height int) {
	if m.Metadata == nil {
		m.Metadata = datatypes.JSONMap{}
	}
	m.Metadata["thumbnail"] = map[string]interface{}{
		"path":   p,
		"width":  width,
		"height": height,
	}
}

// IsImage reports whether the asset has an image MIME type.
func (m *MediaAsset) IsImage() bool {
	return strings.HasPrefix(m.MimeType, "image/")
}

// Dir returns the directory part of the backend path.
func (m *MediaAsset) Dir() string {
	dir := path.Dir(m.Path)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func thumbnailPath(meta datatypes.JSONMap) string {
	if meta == nil {
		return ""
	}
	if thumb, ok := meta["thumbnail"].(map[string]interface{}); ok {
		if p, ok := thumb["path"].(string); ok {
			return p
		}
	}
	if p, ok := meta["thumbnail.path"].(string); ok {
		return p
	}
	return ""
}
