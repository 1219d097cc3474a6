package models

// Slide is one page of a presentation. Order is 1-based and dense within a presentation.
type Slide struct {
	BaseModel

	Order          int    `gorm:"column:slide_order;not null" json:"order"`
	PresentationID string `gorm:"size:36;index;not null" json:"presentationId"`

	Elements []SlideElement `gorm:"constraint:OnDelete:CASCADE" json:"elements,omitempty"`
}
