package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is identified by a unique nickname; there are no credentials.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Nickname  string    `gorm:"uniqueIndex;size:50;not null" json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
