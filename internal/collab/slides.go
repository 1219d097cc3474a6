package collab

import (
	"context"

	"github.com/ivgeniay/jointpresentation/internal/models"
	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// AddSlide appends a slide to the current presentation.
func (c *Coordinator) AddSlide(ctx context.Context, sess *ConnectionContext) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if err := c.requireEditor(ctx, presentationID, userID); err != nil {
		return err
	}
	slide, err := c.slides.Add(ctx, presentationID)
	if err != nil {
		return err
	}
	c.toRoom(presentationID, EventSlideAdded, SlideAdded{Slide: slide, InitiatorUserID: userID})
	return nil
}

// DeleteSlide removes a slide and its elements. A running presentation is clamped to
// the remaining slides and stops when none are left.
func (c *Coordinator) DeleteSlide(ctx context.Context, sess *ConnectionContext, slideID string) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if _, err := c.requireCreator(ctx, presentationID, userID); err != nil {
		return err
	}
	if _, err := c.slideInRoom(ctx, presentationID, slideID); err != nil {
		return err
	}
	if err := c.slides.Delete(ctx, slideID); err != nil {
		return err
	}
	total, err := c.slides.Count(ctx, presentationID)
	if err != nil {
		return err
	}

	unlock := c.order.Lock(presentationID)
	defer unlock()

	c.toRoom(presentationID, EventSlideDeleted, SlideDeleted{
		SlideID:         slideID,
		PresentationID:  presentationID,
		InitiatorUserID: userID,
	})
	c.clampMode(presentationID, userID, total)
	c.observe()
	return nil
}

// ReorderSlides persists a new slide order given as a permutation of slide ids.
func (c *Coordinator) ReorderSlides(ctx context.Context, sess *ConnectionContext, slideIDs []string) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if _, err := c.requireCreator(ctx, presentationID, userID); err != nil {
		return err
	}
	slides, err := c.slides.Reorder(ctx, presentationID, slideIDs)
	if err != nil {
		return err
	}
	c.toRoom(presentationID, EventSlidesReordered, SlidesReordered{
		PresentationID:  presentationID,
		Slides:          slides,
		InitiatorUserID: userID,
	})
	return nil
}

// AddSlideElement stores a new element. The broadcast reaches the initiator too, which
// uses it to confirm its optimistic copy.
func (c *Coordinator) AddSlideElement(ctx context.Context, sess *ConnectionContext, slideID, properties string) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if err := c.requireEditor(ctx, presentationID, userID); err != nil {
		return err
	}
	if _, err := c.slideInRoom(ctx, presentationID, slideID); err != nil {
		return err
	}
	element, err := c.slides.AddElement(ctx, slideID, userID, properties)
	if err != nil {
		return err
	}
	c.toRoom(presentationID, EventElementAdded, ElementAdded{
		SlideID:         slideID,
		Element:         element,
		InitiatorUserID: userID,
	})
	return nil
}

// UpdateSlideElement replaces an element's properties; last write wins.
func (c *Coordinator) UpdateSlideElement(ctx context.Context, sess *ConnectionContext, elementID, properties string) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if err := c.requireEditor(ctx, presentationID, userID); err != nil {
		return err
	}
	if _, err := c.elementInRoom(ctx, presentationID, elementID); err != nil {
		return err
	}
	element, err := c.slides.UpdateElement(ctx, elementID, properties)
	if err != nil {
		return err
	}
	c.toRoom(presentationID, EventElementUpdated, ElementUpdated{
		ElementID:       elementID,
		Element:         element,
		InitiatorUserID: userID,
	})
	return nil
}

// DeleteSlideElement removes an element.
func (c *Coordinator) DeleteSlideElement(ctx context.Context, sess *ConnectionContext, elementID string) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if err := c.requireEditor(ctx, presentationID, userID); err != nil {
		return err
	}
	element, err := c.elementInRoom(ctx, presentationID, elementID)
	if err != nil {
		return err
	}
	if err := c.slides.DeleteElement(ctx, elementID); err != nil {
		return err
	}
	c.toRoom(presentationID, EventElementDeleted, ElementDeleted{
		ElementID:       elementID,
		SlideID:         element.SlideID,
		InitiatorUserID: userID,
	})
	return nil
}

// slideInRoom hides slides of other presentations behind NotFound.
func (c *Coordinator) slideInRoom(ctx context.Context, presentationID, slideID string) (*models.Slide, error) {
	slide, err := c.slides.Get(ctx, slideID)
	if err != nil {
		return nil, err
	}
	if slide.PresentationID != presentationID {
		return nil, apperrors.NewNotFound("Slide")
	}
	return slide, nil
}

func (c *Coordinator) elementInRoom(ctx context.Context, presentationID, elementID string) (*models.SlideElement, error) {
	element, err := c.slides.GetElement(ctx, elementID)
	if err != nil {
		return nil, err
	}
	slide, err := c.slides.Get(ctx, element.SlideID)
	if err != nil {
		return nil, err
	}
	if slide.PresentationID != presentationID {
		return nil, apperrors.NewNotFound("Element")
	}
	return element, nil
}
