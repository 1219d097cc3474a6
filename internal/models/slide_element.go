package models

import "gorm.io/datatypes"

// SlideElement is a shape or text box. Properties is opaque JSON owned by the canvas.
type SlideElement struct {
	BaseModel

	SlideID     string         `gorm:"size:36;index;not null" json:"slideId"`
	Properties  datatypes.JSON `gorm:"not null" json:"properties"`
	CreatedByID string         `gorm:"size:36;index" json:"createdById"`
}
