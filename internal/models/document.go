package models

import (
	"time"

	"gorm.io/gorm"
)

type Uploader struct {
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name" json:"name"`
}

// DocumentRecord is the fingerprint and metadata of one uploaded file. The
// file content itself is never stored.
type DocumentRecord struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	ID         string    `gorm:"uniqueIndex;not null" bson:"id" json:"id"`
	Name       string    `gorm:"not null" bson:"name" json:"name"`
	Size       int64     `bson:"size" json:"size"`
	Type       string    `bson:"type" json:"type"`
	Hash       string    `gorm:"index;not null" bson:"hash" json:"hash"`
	UploadedAt time.Time `gorm:"index" bson:"uploadedAt" json:"uploadedAt"`
	UploadedBy *Uploader `gorm:"embedded;embeddedPrefix:uploaded_by_" bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
}

func (DocumentRecord) TableName() string { return DocumentsCollection }

func (d DocumentRecord) Fields() map[string]any {
	f := map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"hash":       d.Hash,
		"uploadedAt": d.UploadedAt,
	}
	if d.UploadedBy != nil {
		f["uploadedBy.email"] = d.UploadedBy.Email
	}
	return f
}

// AfterFind drops the zero uploader gorm allocates for rows written without one.
func (d *DocumentRecord) AfterFind(*gorm.DB) error {
	if d.UploadedBy != nil && d.UploadedBy.Email == "" {
		d.UploadedBy = nil
	}
	return nil
}
