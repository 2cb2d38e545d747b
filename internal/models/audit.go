package models

import (
	"time"

	"gorm.io/gorm"
)

type Action string

const (
	ActionUpload        Action = "upload"
	ActionVerifySuccess Action = "verify_success"
	ActionVerifyFail    Action = "verify_fail"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

type Actor struct {
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name" json:"name"`
	Role  Role   `bson:"role" json:"role"`
}

// AuditLogEntry records one upload or verification. Entries are only ever
// inserted; nothing in this module updates or deletes them.
type AuditLogEntry struct {
	Seq          int64     `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	ID           string    `gorm:"uniqueIndex;not null" bson:"id" json:"id"`
	Action       Action    `gorm:"not null" bson:"action" json:"action"`
	DocumentName string    `bson:"documentName" json:"documentName"`
	Hash         string    `bson:"hash" json:"hash"`
	Timestamp    time.Time `gorm:"index" bson:"timestamp" json:"timestamp"`
	Status       Status    `gorm:"not null" bson:"status" json:"status"`
	Message      string    `bson:"message" json:"message"`
	User         *Actor    `gorm:"embedded;embeddedPrefix:user_" bson:"user,omitempty" json:"user,omitempty"`
}

func (AuditLogEntry) TableName() string { return AuditLogsCollection }

func (e AuditLogEntry) Fields() map[string]any {
	f := map[string]any{
		"id":        e.ID,
		"action":    string(e.Action),
		"hash":      e.Hash,
		"timestamp": e.Timestamp,
		"status":    string(e.Status),
	}
	if e.User != nil {
		f["user.email"] = e.User.Email
	}
	return f
}

func (e *AuditLogEntry) AfterFind(*gorm.DB) error {
	if e.User != nil && e.User.Email == "" {
		e.User = nil
	}
	return nil
}
