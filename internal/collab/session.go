package collab

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// ConnectUser performs the nickname handshake.
func (c *Coordinator) ConnectUser(ctx context.Context, sess *ConnectionContext, nickname string) error {
	if sess == nil {
		return apperrors.ErrUnauthenticated
	}
	if _, current, ok := sess.Identity(); ok && current != strings.TrimSpace(nickname) {
		return errOtherIdentity
	}
	user, err := c.users.GetOrCreate(ctx, nickname)
	if err != nil {
		return err
	}
	return c.identify(sess, user.ID, user.Nickname)
}

// ResumeSession restores the identity carried by a ticket. Rights are not part of the
// ticket and are re-read on the next join.
func (c *Coordinator) ResumeSession(ctx context.Context, sess *ConnectionContext, token string) error {
	if sess == nil || c.tickets == nil {
		return apperrors.ErrUnauthenticated
	}
	claims, err := c.tickets.Validate(token)
	if err != nil {
		return err
	}
	user, err := c.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return apperrors.ErrUnauthenticated.WithMessage("session ticket user no longer exists")
		}
		return err
	}
	return c.identify(sess, user.ID, user.Nickname)
}

func (c *Coordinator) identify(sess *ConnectionContext, userID, nickname string) error {
	if current, _, ok := sess.Identity(); ok {
		if current != userID {
			return errOtherIdentity
		}
		return c.sendTicket(sess, userID, nickname)
	}

	if err := c.transport.AddToGroup(sess.ConnID(), GroupGlobalUsers); err != nil {
		return apperrors.ErrInternal.WithInternal(err)
	}
	sess.setIdentity(userID, nickname)
	c.log.Debug("connection identified", zap.String("conn_id", sess.ConnID()), zap.String("user_id", userID))

	if c.markOnline(userID) {
		c.toAll(EventUserConnected, UserPresence{UserID: userID, Nickname: nickname})
	}
	return c.sendTicket(sess, userID, nickname)
}

func (c *Coordinator) sendTicket(sess *ConnectionContext, userID, nickname string) error {
	if c.tickets == nil {
		return nil
	}
	ticket, err := c.tickets.Issue(userID, nickname)
	if err != nil {
		return apperrors.ErrInternal.WithInternal(err)
	}
	c.toCaller(sess, EventSessionTicket, ticket)
	return nil
}
