package collab

import "context"

// GrantEditorRights records userID as an editor, then upgrades their live record.
func (c *Coordinator) GrantEditorRights(ctx context.Context, sess *ConnectionContext, presentationID, userID string) error {
	return c.changeRights(ctx, sess, presentationID, userID, true)
}

// RemoveEditorRights deletes the editor relation, then downgrades the live record.
func (c *Coordinator) RemoveEditorRights(ctx context.Context, sess *ConnectionContext, presentationID, userID string) error {
	return c.changeRights(ctx, sess, presentationID, userID, false)
}

func (c *Coordinator) changeRights(ctx context.Context, sess *ConnectionContext, presentationID, targetID string, canEdit bool) error {
	callerID, _, err := requireIdentity(sess)
	if err != nil {
		return err
	}
	presentation, err := c.requireCreator(ctx, presentationID, callerID)
	if err != nil {
		return err
	}
	if presentation.IsCreator(targetID) {
		return errCreatorIsEditor
	}
	target, err := c.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	event := EventEditorGranted
	if canEdit {
		err = c.presentations.AddEditor(ctx, presentationID, targetID)
	} else {
		event = EventEditorRemoved
		err = c.presentations.RemoveEditor(ctx, presentationID, targetID)
	}
	if err != nil {
		return err
	}

	unlock := c.order.Lock(presentationID)
	defer unlock()

	participants, _ := c.presence.UpdateRights(presentationID, targetID, canEdit)
	c.toRoom(presentationID, event, EditorChanged{
		PresentationID:  presentationID,
		UserID:          targetID,
		Nickname:        target.Nickname,
		InitiatorUserID: callerID,
	})
	c.toRoom(presentationID, EventUserUpdateRights, UserUpdateRights{
		UserID:         targetID,
		Nickname:       target.Nickname,
		CanEdit:        canEdit,
		PresentationID: presentationID,
	})
	c.roomList(presentationID, participants)
	return nil
}
