package models

import "time"

const AdminTable = "rft_admins"

// AdminUser is the single administrative principal. PasswordHash is empty for
// accounts created through the identity provider (federated-only).
type AdminUser struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (AdminUser) TableName() string { return AdminTable }
