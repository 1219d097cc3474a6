package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ivgeniay/jointpresentation/internal/models"
	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// PresentationService owns presentations and their editor relations.
type PresentationService struct {
	db     *gorm.DB
	limits Limits
}

// NewPresentationService constructs a PresentationService instance.
func NewPresentationService(db *gorm.DB, limits Limits) (*PresentationService, error) {
	if db == nil {
		return nil, errors.New("presentation service: db is required")
	}
	return &PresentationService{db: db, limits: limits.withDefaults()}, nil
}

// Create stores a presentation together with its first slide.
func (s *PresentationService) Create(ctx context.Context, title, creatorID string) (*models.Presentation, error) {
	ctx = ensureContext(ctx)

	title = strings.TrimSpace(title)
	if err := validateText("title", title, s.limits.TitleMaxLength); err != nil {
		return nil, err
	}

	presentation := &models.Presentation{Title: title, CreatorID: creatorID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.First(&creator, "id = ?", creatorID).Error; err != nil {
			return storeError("User", "load creator", err)
		}
		if err := tx.Create(presentation).Error; err != nil {
			return err
		}
		return tx.Create(&models.Slide{PresentationID: presentation.ID, Order: 1}).Error
	})
	if err != nil {
		return nil, storeError("Presentation", "create presentation", err)
	}

	return s.Get(ctx, presentation.ID)
}

// Get loads a presentation with its creator and ordered slides including elements.
func (s *PresentationService) Get(ctx context.Context, id string) (*models.Presentation, error) {
	ctx = ensureContext(ctx)

	var presentation models.Presentation
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Slides", orderedSlides).
		Preload("Slides.Elements", orderedElements).
		First(&presentation, "id = ?", id).Error
	if err != nil {
		return nil, storeError("Presentation", "get presentation", err)
	}
	return &presentation, nil
}

// Find loads the presentation row alone, without creator or slides.
func (s *PresentationService) Find(ctx context.Context, id string) (*models.Presentation, error) {
	ctx = ensureContext(ctx)

	var presentation models.Presentation
	if err := s.db.WithContext(ctx).First(&presentation, "id = ?", id).Error; err != nil {
		return nil, storeError("Presentation", "find presentation", err)
	}
	return &presentation, nil
}

// List returns all presentations, newest first, with creators and ordered slides.
func (s *PresentationService) List(ctx context.Context) ([]models.Presentation, error) {
	ctx = ensureContext(ctx)

	var presentations []models.Presentation
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Slides", orderedSlides).
		Order("created_at DESC").
		Find(&presentations).Error
	if err != nil {
		return nil, storeError("Presentation", "list presentations", err)
	}
	return presentations, nil
}

// ListEditableBy returns presentations the user created or was granted editor rights on.
func (s *PresentationService) ListEditableBy(ctx context.Context, userID string) ([]models.Presentation, error) {
	ctx = ensureContext(ctx)

	editorOf := s.db.Model(&models.PresentationEditor{}).Select("presentation_id").Where("user_id = ?", userID)

	var presentations []models.Presentation
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Where("creator_id = ? OR id IN (?)", userID, editorOf).
		Order("created_at DESC").
		Find(&presentations).Error
	if err != nil {
		return nil, storeError("Presentation", "list editable presentations", err)
	}
	return presentations, nil
}

// Delete removes a presentation with its slides, elements and editor relations.
func (s *PresentationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var presentation models.Presentation
		if err := tx.Select("id").First(&presentation, "id = ?", id).Error; err != nil {
			return storeError("Presentation", "load presentation", err)
		}

		slideIDs := tx.Model(&models.Slide{}).Select("id").Where("presentation_id = ?", id)
		if err := tx.Where("slide_id IN (?)", slideIDs).Delete(&models.SlideElement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("presentation_id = ?", id).Delete(&models.Slide{}).Error; err != nil {
			return err
		}
		if err := tx.Where("presentation_id = ?", id).Delete(&models.PresentationEditor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&presentation).Error
	})
	return storeError("Presentation", "delete presentation", err)
}

// CanEdit reports whether the user is the creator or a registered editor.
func (s *PresentationService) CanEdit(ctx context.Context, presentationID, userID string) (bool, error) {
	ctx = ensureContext(ctx)

	var presentation models.Presentation
	if err := s.db.WithContext(ctx).Select("id", "creator_id").First(&presentation, "id = ?", presentationID).Error; err != nil {
		return false, storeError("Presentation", "load presentation", err)
	}
	if presentation.IsCreator(userID) {
		return true, nil
	}
	return s.IsEditor(ctx, presentationID, userID)
}

// IsEditor reports whether an explicit editor relation exists.
func (s *PresentationService) IsEditor(ctx context.Context, presentationID, userID string) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PresentationEditor{}).
		Where("presentation_id = ? AND user_id = ?", presentationID, userID).
		Count(&count).Error
	if err != nil {
		return false, storeError("Editor", "check editor", err)
	}
	return count > 0, nil
}

// AddEditor records an editor relation. Granting twice yields a Conflict.
func (s *PresentationService) AddEditor(ctx context.Context, presentationID, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", userID).Error; err != nil {
			return storeError("User", "load user", err)
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PresentationEditor{
			PresentationID: presentationID,
			UserID:         userID,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrConflict.WithMessage("User is already an editor")
		}
		return nil
	})
	return storeError("Editor", "add editor", err)
}

// RemoveEditor deletes an editor relation. Removing a non-editor is a no-op.
func (s *PresentationService) RemoveEditor(ctx context.Context, presentationID, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).
		Where("presentation_id = ? AND user_id = ?", presentationID, userID).
		Delete(&models.PresentationEditor{}).Error
	return storeError("Editor", "remove editor", err)
}

// ListEditors returns the users holding explicit editor rights.
func (s *PresentationService) ListEditors(ctx context.Context, presentationID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN presentation_editors ON presentation_editors.user_id = users.id").
		Where("presentation_editors.presentation_id = ?", presentationID).
		Order("users.nickname ASC").
		Find(&users).Error
	if err != nil {
		return nil, storeError("Editor", "list editors", err)
	}
	return users, nil
}

func orderedSlides(db *gorm.DB) *gorm.DB {
	return db.Order("slide_order ASC").Order("created_at ASC")
}

func orderedElements(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
