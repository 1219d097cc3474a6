package models

// Presentation is a slide deck owned by its creator.
type Presentation struct {
	BaseModel

	Title     string `gorm:"size:250;not null" json:"title"`
	CreatorID string `gorm:"size:36;index;not null" json:"creatorId"`
	Creator   *User  `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`

	Slides  []Slide              `gorm:"constraint:OnDelete:CASCADE" json:"slides,omitempty"`
	Editors []PresentationEditor `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsCreator reports whether userID owns the presentation.
func (p *Presentation) IsCreator(userID string) bool {
	return p != nil && userID != "" && p.CreatorID == userID
}
