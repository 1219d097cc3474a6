package collab

import (
	"context"

	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// CreatePresentation stores a presentation with one slide and announces it globally.
func (c *Coordinator) CreatePresentation(ctx context.Context, sess *ConnectionContext, title string) error {
	userID, nickname, err := requireIdentity(sess)
	if err != nil {
		return err
	}
	presentation, err := c.presentations.Create(ctx, title, userID)
	if err != nil {
		return err
	}
	c.toAll(EventPresentationCreated, PresentationCreated{
		Presentation: presentation,
		CreatedBy:    UserPresence{UserID: userID, Nickname: nickname},
	})
	return nil
}

// DeletePresentation removes a presentation. The room hears about it first, then its
// presence and mode entries are dropped, then the catalog is told.
func (c *Coordinator) DeletePresentation(ctx context.Context, sess *ConnectionContext, presentationID string) error {
	userID, _, err := requireIdentity(sess)
	if err != nil {
		return err
	}
	if _, err := c.requireCreator(ctx, presentationID, userID); err != nil {
		return err
	}
	if err := c.presentations.Delete(ctx, presentationID); err != nil {
		return err
	}

	payload := PresentationDeleted{PresentationID: presentationID, DeletedBy: userID}

	unlock := c.order.Lock(presentationID)
	c.toRoom(presentationID, EventPresentationDeleted, payload)
	conns := c.presence.Drop(presentationID)
	c.modes.Stop(presentationID)
	unlock()

	for _, connID := range conns {
		c.transport.RemoveFromGroup(connID, PresentationGroup(presentationID))
		if member := c.Session(connID); member != nil {
			member.clearPresentationIf(presentationID)
		}
	}
	c.observe()

	c.toAll(EventPresentationDeleted, payload)
	return nil
}

// JoinPresentation moves the connection into a room. The caller's rights are always
// re-read from storage; a running presentation is replayed to the caller.
func (c *Coordinator) JoinPresentation(ctx context.Context, sess *ConnectionContext, presentationID string) error {
	userID, nickname, err := requireIdentity(sess)
	if err != nil {
		return err
	}
	presentation, err := c.presentations.Get(ctx, presentationID)
	if err != nil {
		return err
	}
	canEdit, err := c.presentations.CanEdit(ctx, presentationID, userID)
	if err != nil {
		return err
	}

	if previous := sess.PresentationID(); previous != "" && previous != presentationID {
		c.leaveRoom(sess, userID, nickname, sess.clearPresentation())
	}
	if err := c.transport.AddToGroup(sess.ConnID(), PresentationGroup(presentationID)); err != nil {
		return apperrors.ErrInternal.WithInternal(err)
	}
	sess.setPresentation(presentationID)

	total := len(presentation.Slides)

	unlock := c.order.Lock(presentationID)
	participants, first := c.presence.Join(presentationID, sess.ConnID(), userID, nickname, canEdit)
	c.modes.PresenterBack(presentationID, userID)
	mode := c.clampMode(presentationID, userID, total)

	c.toCaller(sess, EventJoinedPresentation, JoinedPresentation{
		Presentation: presentation,
		User:         UserPresence{UserID: userID, Nickname: nickname},
		CanEdit:      canEdit,
		Participants: participants,
		Mode:         mode,
	})
	if mode.Presenting() {
		c.toCaller(sess, EventPresentationStarted, presentationStarted(presentationID, mode, total))
	}
	if first {
		c.toRoom(presentationID, EventUserJoinedPresentation, RoomMember{
			PresentationID: presentationID,
			UserID:         userID,
			Nickname:       nickname,
			CanEdit:        canEdit,
		})
	}
	c.roomList(presentationID, participants)
	unlock()

	c.observe()
	return nil
}

// LeavePresentation leaves the current room; outside a room it does nothing.
func (c *Coordinator) LeavePresentation(_ context.Context, sess *ConnectionContext) error {
	userID, nickname, err := requireIdentity(sess)
	if err != nil {
		return err
	}
	c.leaveRoom(sess, userID, nickname, sess.clearPresentation())
	return nil
}

func (c *Coordinator) leaveRoom(sess *ConnectionContext, userID, nickname, presentationID string) {
	if presentationID == "" {
		return
	}
	c.transport.RemoveFromGroup(sess.ConnID(), PresentationGroup(presentationID))

	unlock := c.order.Lock(presentationID)
	participants, removed := c.presence.Leave(presentationID, sess.ConnID(), userID)
	if removed {
		c.modes.PresenterAway(presentationID, userID)
		c.toRoom(presentationID, EventUserLeftPresentation, RoomMember{
			PresentationID: presentationID,
			UserID:         userID,
			Nickname:       nickname,
		})
	}
	c.roomList(presentationID, participants)
	unlock()

	c.observe()
}

// clampMode re-validates a running session against the slide count and emits the
// correction. Caller holds the order lock.
func (c *Coordinator) clampMode(presentationID, userID string, total int) ModeState {
	state, moved, stopped := c.modes.Clamp(presentationID, total)
	switch {
	case stopped:
		c.toRoom(presentationID, EventPresentationStopped, PresentationStopped{
			PresentationID: presentationID,
			Reason:         StopReasonNoSlides,
		})
		return editState()
	case moved:
		c.toRoom(presentationID, EventSlideChanged, SlideChanged{
			PresentationID:    presentationID,
			CurrentSlideIndex: state.CurrentSlideIndex,
			TotalSlides:       total,
			ChangedByUserID:   userID,
		})
	}
	return state
}
