package models

import "time"

// PresentationEditor grants a non-creator user edit rights on a presentation.
type PresentationEditor struct {
	UserID         string    `gorm:"primaryKey;size:36" json:"userId"`
	PresentationID string    `gorm:"primaryKey;size:36" json:"presentationId"`
	AddedAt        time.Time `gorm:"autoCreateTime" json:"addedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
