package models

import "time"

// Collection names shared by every store backend.
const (
	UsersCollection     = "users"
	DocumentsCollection = "documents"
	AuditLogsCollection = "audit_logs"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	}
	return "", false
}

// Identity is the actor carried in a session token.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type User struct {
	Seq          int64     `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	Email        string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"column:password;not null" bson:"password" json:"-"`
	Name         string    `gorm:"not null" bson:"name" json:"name"`
	Role         Role      `gorm:"not null" bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

func (User) TableName() string { return UsersCollection }

func (u User) Identity() Identity {
	return Identity{Email: u.Email, Name: u.Name, Role: u.Role}
}

func (u User) Fields() map[string]any {
	return map[string]any{
		"email":     u.Email,
		"name":      u.Name,
		"role":      string(u.Role),
		"createdAt": u.CreatedAt,
	}
}
