package model

import (
	"time"
)

// CanonicalPaper is the dedup registry entry for one distinct content
// fingerprint. The primary key on Fingerprint is what makes the
// check-and-create race safe: two concurrent uploads of the same content
// both attempt an insert, the database lets exactly one through, and the
// loser is treated as a duplicate.
//
// PaperID never changes after creation - the canonical paper is always
// the first uploader. UploadCount only ever grows.
type CanonicalPaper struct {
	Fingerprint    string    `gorm:"type:varchar(64);primaryKey" json:"fingerprint"`
	PaperID        string    `gorm:"type:uuid;not null" json:"paper_id"`
	UploadCount    int64     `gorm:"not null;default:1" json:"upload_count"`
	LastUploadedAt time.Time `gorm:"not null" json:"last_uploaded_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for CanonicalPaper
func (CanonicalPaper) TableName() string {
	return "canonical_papers"
}
