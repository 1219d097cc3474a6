package collab

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartPresentation puts the current room into Present mode at slideIndex, replacing
// any running session.
func (c *Coordinator) StartPresentation(ctx context.Context, sess *ConnectionContext, slideIndex int) error {
	userID, nickname, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if _, err := c.requireCreator(ctx, presentationID, userID); err != nil {
		return err
	}
	total, err := c.slides.Count(ctx, presentationID)
	if err != nil {
		return err
	}

	unlock := c.order.Lock(presentationID)
	defer unlock()

	state, err := c.modes.Start(presentationID, userID, nickname, slideIndex, total)
	if err != nil {
		return err
	}
	c.toRoom(presentationID, EventPresentationStarted, presentationStarted(presentationID, state, total))
	c.observe()
	return nil
}

// StopPresentation returns the current room to Edit mode.
func (c *Coordinator) StopPresentation(ctx context.Context, sess *ConnectionContext) error {
	userID, nickname, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if _, err := c.requireCreator(ctx, presentationID, userID); err != nil {
		return err
	}

	unlock := c.order.Lock(presentationID)
	defer unlock()

	if _, existed := c.modes.Stop(presentationID); !existed {
		return ErrNotPresenting
	}
	c.toRoom(presentationID, EventPresentationStopped, PresentationStopped{
		PresentationID:    presentationID,
		StoppedByUserID:   userID,
		StoppedByNickname: nickname,
		Reason:            StopReasonStopped,
	})
	c.observe()
	return nil
}

// NextSlide advances; at the last slide it does nothing.
func (c *Coordinator) NextSlide(ctx context.Context, sess *ConnectionContext) error {
	return c.navigate(ctx, sess, NextSlide)
}

// PrevSlide goes back; at the first slide it does nothing.
func (c *Coordinator) PrevSlide(ctx context.Context, sess *ConnectionContext) error {
	return c.navigate(ctx, sess, PrevSlide)
}

// GoToSlide jumps to index; out of range targets are ignored.
func (c *Coordinator) GoToSlide(ctx context.Context, sess *ConnectionContext, index int) error {
	return c.navigate(ctx, sess, GoToSlide(index))
}

func (c *Coordinator) navigate(ctx context.Context, sess *ConnectionContext, move Move) error {
	userID, _, presentationID, err := requireRoom(sess)
	if err != nil {
		return err
	}
	if _, err := c.requireCreator(ctx, presentationID, userID); err != nil {
		return err
	}
	total, err := c.slides.Count(ctx, presentationID)
	if err != nil {
		return err
	}

	unlock := c.order.Lock(presentationID)
	defer unlock()

	state, changed, err := c.modes.Navigate(presentationID, userID, total, move)
	if err != nil || !changed {
		return err
	}
	c.toRoom(presentationID, EventSlideChanged, SlideChanged{
		PresentationID:    presentationID,
		CurrentSlideIndex: state.CurrentSlideIndex,
		TotalSlides:       total,
		ChangedByUserID:   userID,
	})
	return nil
}

// ReapAbandoned stops sessions whose presenter has been away longer than grace and
// returns how many were stopped.
func (c *Coordinator) ReapAbandoned(ctx context.Context, grace time.Duration) (int, error) {
	stopped := 0
	for _, presentationID := range c.modes.Away() {
		if err := ctx.Err(); err != nil {
			return stopped, err
		}

		unlock := c.order.Lock(presentationID)
		state, ok := c.modes.StopIfAbandoned(presentationID, grace)
		if ok {
			c.toRoom(presentationID, EventPresentationStopped, PresentationStopped{
				PresentationID:    presentationID,
				StoppedByUserID:   state.PresenterID,
				StoppedByNickname: state.PresenterNickname,
				Reason:            StopReasonPresenterLeft,
			})
			stopped++
		}
		unlock()

		if ok {
			c.log.Info("stopped abandoned presentation",
				zap.String("presentation_id", presentationID),
				zap.String("presenter_id", state.PresenterID))
		}
	}
	if stopped > 0 {
		c.observe()
	}
	return stopped, nil
}
