package model

import "time"

// Orphan operations.
const (
	OrphanDelete = "delete"
	OrphanCopy   = "copy"
)

// StorageOrphan records a physical operation that failed while the metadata
// change went ahead. A sweep retries it later.
type StorageOrphan struct {
	ID         uint      `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	Disk       string    `gorm:"column:disk;type:varchar(32);not null;index:idx_orphan_disk" json:"disk,omitempty"`
	Path       string    `gorm:"column:path;type:varchar(1024);not null" json:"path,omitempty"`
	SourcePath string    `gorm:"column:source_path;type:varchar(1024)" json:"source_path,omitempty"`
	Operation  string    `gorm:"column:operation;type:varchar(16);not null" json:"operation,omitempty"`
	Reason     string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Attempts   int       `gorm:"column:attempts" json:"attempts"`
	MediaID    *uint     `gorm:"column:media_id;index:idx_orphan_media" json:"media_id,omitempty"`
}

// TableName overrides gorm to use storage_orphans table.
func (StorageOrphan) TableName() string {
	return "storage_orphans"
}
