package model

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// RootPath is the materialized path of every root folder.
const RootPath = "/"

const rootParentKey = "root"

// Folder is a node of a per-tenant, per-disk tree. Path is materialized as
// "/", "/a/", "/a/b/". SiblingKey is unique and covers (disk, tenant,
// parent, slug), which also allows one root per (tenant, disk).
type Folder struct {
	ID         uint      `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	TenantID   *uint     `gorm:"column:tenant_id;index:idx_folder_scope" json:"tenant_id,omitempty"`
	ParentID   *uint     `gorm:"column:parent_id;index:idx_folder_parent" json:"parent_id,omitempty"`
	Disk       string    `gorm:"column:disk;type:varchar(32);not null;index:idx_folder_scope" json:"disk,omitempty"`
	Name       string    `gorm:"column:name;type:varchar(255)" json:"name,omitempty"`
	Slug       string    `gorm:"column:slug;type:varchar(120)" json:"slug,omitempty"`
	Path       string    `gorm:"column:path;type:varchar(2048);not null" json:"path,omitempty"`
	SiblingKey *string   `gorm:"column:sibling_key;type:varchar(255);uniqueIndex:uk_folder_sibling" json:"-"`
}

// TableName overrides gorm to use media_folders table.
func (Folder) TableName() string {
	return "media_folders"
}

// BeforeSave normalizes the tenant and refreshes the sibling key.
func (f *Folder) BeforeSave(tx *gorm.DB) error {
	f.TenantID = NormalizeTenant(f.TenantID)
	key := FolderSiblingKey(f.Disk, f.TenantID, f.ParentID, f.Slug)
	f.SiblingKey = &key
	return nil
}

// IsRoot reports whether the folder is the root of its tree.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// CanDelete is false for roots.
func (f *Folder) CanDelete() bool {
	return !f.IsRoot()
}

// ChildPath returns the materialized path of a child with the given slug.
func (f *Folder) ChildPath(slug string) string {
	return f.Path + slug + "/"
}

// FolderSiblingKey builds the unique key for a folder slug under a parent.
func FolderSiblingKey(disk string, tenantID, parentID *uint, slug string) string {
	parent := rootParentKey
	if parentID != nil {
		parent = strconv.FormatUint(uint64(*parentID), 10)
	}
	return disk + "|" + TenantKey(tenantID) + "|" + parent + "|" + slug
}
