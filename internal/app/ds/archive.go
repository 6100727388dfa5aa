package ds

import "time"

// ArchiveFields is embedded in every archivable entity. GORM flattens the
// fields into the owning table.
type ArchiveFields struct {
	IsArchived    bool        `gorm:"default:false;index" json:"is_archived"`
	ArchivedAt    *time.Time  `gorm:"default:null" json:"archived_at,omitempty"`
	ArchivedByID  *uint       `gorm:"default:null" json:"archived_by_id,omitempty"`
	ArchiveType   ArchiveType `gorm:"type:varchar(20);default:''" json:"archive_type,omitempty"`
	ArchiveReason string      `gorm:"type:text" json:"archive_reason,omitempty"`
}
