package services

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/models"
	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// SlideService manages slides and the elements drawn on them.
type SlideService struct {
	db *gorm.DB
}

// NewSlideService constructs a SlideService instance.
func NewSlideService(db *gorm.DB) (*SlideService, error) {
	if db == nil {
		return nil, errors.New("slide service: db is required")
	}
	return &SlideService{db: db}, nil
}

// ListByPresentation returns the presentation's slides in display order.
func (s *SlideService) ListByPresentation(ctx context.Context, presentationID string) ([]models.Slide, error) {
	ctx = ensureContext(ctx)

	if err := s.requirePresentation(s.db.WithContext(ctx), presentationID); err != nil {
		return nil, err
	}

	var slides []models.Slide
	if err := orderedSlides(s.db.WithContext(ctx)).Where("presentation_id = ?", presentationID).Find(&slides).Error; err != nil {
		return nil, storeError("Slide", "list slides", err)
	}
	return slides, nil
}

// Count returns the number of slides in a presentation.
func (s *SlideService) Count(ctx context.Context, presentationID string) (int, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Slide{}).Where("presentation_id = ?", presentationID).Count(&count).Error; err != nil {
		return 0, storeError("Slide", "count slides", err)
	}
	return int(count), nil
}

// Get loads a slide without its elements.
func (s *SlideService) Get(ctx context.Context, id string) (*models.Slide, error) {
	ctx = ensureContext(ctx)

	var slide models.Slide
	if err := s.db.WithContext(ctx).First(&slide, "id = ?", id).Error; err != nil {
		return nil, storeError("Slide", "get slide", err)
	}
	return &slide, nil
}

// GetWithElements loads a slide and its elements in creation order.
func (s *SlideService) GetWithElements(ctx context.Context, id string) (*models.Slide, error) {
	ctx = ensureContext(ctx)

	var slide models.Slide
	if err := s.db.WithContext(ctx).Preload("Elements", orderedElements).First(&slide, "id = ?", id).Error; err != nil {
		return nil, storeError("Slide", "get slide", err)
	}
	return &slide, nil
}

// Add appends a slide after the current last one.
func (s *SlideService) Add(ctx context.Context, presentationID string) (*models.Slide, error) {
	ctx = ensureContext(ctx)

	slide := &models.Slide{PresentationID: presentationID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requirePresentation(tx, presentationID); err != nil {
			return err
		}

		var maxOrder int
		if err := tx.Model(&models.Slide{}).
			Where("presentation_id = ?", presentationID).
			Select("COALESCE(MAX(slide_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		slide.Order = maxOrder + 1
		return tx.Create(slide).Error
	})
	if err != nil {
		return nil, storeError("Slide", "add slide", err)
	}
	return slide, nil
}

// Delete removes a slide and its elements, closing the gap in the ordering.
func (s *SlideService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slide models.Slide
		if err := tx.First(&slide, "id = ?", id).Error; err != nil {
			return storeError("Slide", "load slide", err)
		}
		if err := tx.Where("slide_id = ?", id).Delete(&models.SlideElement{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&slide).Error; err != nil {
			return err
		}
		return tx.Model(&models.Slide{}).
			Where("presentation_id = ? AND slide_order > ?", slide.PresentationID, slide.Order).
			UpdateColumn("slide_order", gorm.Expr("slide_order - 1")).Error
	})
	return storeError("Slide", "delete slide", err)
}

// Reorder assigns 1-based positions following slideIDs, which must name every slide exactly once.
func (s *SlideService) Reorder(ctx context.Context, presentationID string, slideIDs []string) ([]models.Slide, error) {
	ctx = ensureContext(ctx)

	ids := normaliseIDs(slideIDs)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requirePresentation(tx, presentationID); err != nil {
			return err
		}

		var existing []string
		if err := tx.Model(&models.Slide{}).Where("presentation_id = ?", presentationID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if len(ids) != len(slideIDs) || !sameMembers(existing, ids) {
			return apperrors.NewInvalidArgument("slide order must list every slide of the presentation exactly once")
		}

		for index, id := range ids {
			if err := tx.Model(&models.Slide{}).Where("id = ?", id).UpdateColumn("slide_order", index+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError("Slide", "reorder slides", err)
	}
	return s.ListByPresentation(ctx, presentationID)
}

// ListElements returns the slide's elements in creation order.
func (s *SlideService) ListElements(ctx context.Context, slideID string) ([]models.SlideElement, error) {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, slideID); err != nil {
		return nil, err
	}

	var elements []models.SlideElement
	if err := orderedElements(s.db.WithContext(ctx)).Where("slide_id = ?", slideID).Find(&elements).Error; err != nil {
		return nil, storeError("Element", "list elements", err)
	}
	return elements, nil
}

// AddElement stores a new element with the supplied JSON properties.
func (s *SlideService) AddElement(ctx context.Context, slideID, createdByID, properties string) (*models.SlideElement, error) {
	ctx = ensureContext(ctx)

	if err := validateProperties(properties); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, slideID); err != nil {
		return nil, err
	}

	element := &models.SlideElement{
		SlideID:     slideID,
		CreatedByID: createdByID,
		Properties:  datatypes.JSON(properties),
	}
	if err := s.db.WithContext(ctx).Create(element).Error; err != nil {
		return nil, storeError("Element", "add element", err)
	}
	return element, nil
}

// GetElement loads an element by identifier.
func (s *SlideService) GetElement(ctx context.Context, id string) (*models.SlideElement, error) {
	ctx = ensureContext(ctx)

	var element models.SlideElement
	if err := s.db.WithContext(ctx).First(&element, "id = ?", id).Error; err != nil {
		return nil, storeError("Element", "get element", err)
	}
	return &element, nil
}

// UpdateElement replaces the element's properties. The last write wins.
func (s *SlideService) UpdateElement(ctx context.Context, id, properties string) (*models.SlideElement, error) {
	ctx = ensureContext(ctx)

	if err := validateProperties(properties); err != nil {
		return nil, err
	}

	element, err := s.GetElement(ctx, id)
	if err != nil {
		return nil, err
	}

	element.Properties = datatypes.JSON(properties)
	if err := s.db.WithContext(ctx).Model(element).Update("properties", element.Properties).Error; err != nil {
		return nil, storeError("Element", "update element", err)
	}
	return element, nil
}

// DeleteElement removes an element.
func (s *SlideService) DeleteElement(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SlideElement{})
	if result.Error != nil {
		return storeError("Element", "delete element", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("Element")
	}
	return nil
}

func (s *SlideService) requirePresentation(db *gorm.DB, presentationID string) error {
	var count int64
	if err := db.Model(&models.Presentation{}).Where("id = ?", presentationID).Count(&count).Error; err != nil {
		return storeError("Presentation", "load presentation", err)
	}
	if count == 0 {
		return apperrors.NewNotFound("Presentation")
	}
	return nil
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, value := range a {
		set[value] = struct{}{}
	}
	for _, value := range b {
		if _, ok := set[value]; !ok {
			return false
		}
	}
	return true
}
