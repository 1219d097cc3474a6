package collab

import "sync"

// ConnectionContext is the per-connection session state: who the connection speaks
// for and which presentation room, if any, it has joined.
type ConnectionContext struct {
	connID string

	mu             sync.RWMutex
	userID         string
	nickname       string
	presentationID string
}

// NewConnectionContext creates an anonymous context for a connection.
func NewConnectionContext(connID string) *ConnectionContext {
	return &ConnectionContext{connID: connID}
}

// ConnID returns the transport connection identifier.
func (c *ConnectionContext) ConnID() string { return c.connID }

// Identity returns the authenticated user, ok is false before connectUser/resumeSession.
func (c *ConnectionContext) Identity() (userID, nickname string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.nickname, c.userID != ""
}

// PresentationID returns the joined presentation or "".
func (c *ConnectionContext) PresentationID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.presentationID
}

func (c *ConnectionContext) setIdentity(userID, nickname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.nickname = nickname
}

func (c *ConnectionContext) setPresentation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presentationID = id
}

// clearPresentation detaches the context and returns the presentation it was in.
func (c *ConnectionContext) clearPresentation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.presentationID
	c.presentationID = ""
	return id
}

// clearPresentationIf detaches the context only when it is still in presentationID.
func (c *ConnectionContext) clearPresentationIf(presentationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presentationID != presentationID {
		return false
	}
	c.presentationID = ""
	return true
}
