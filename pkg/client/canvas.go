package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// PendingState is the lifecycle of an optimistic create.
type PendingState int

const (
	// Pending waits for the server's ElementAdded.
	Pending PendingState = iota
	// Confirmed took over the server-assigned id.
	Confirmed
	// Discarded was deleted locally before confirmation arrived.
	Discarded
)

func (s PendingState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Discarded:
		return "discarded"
	default:
		return fmt.Sprintf("PendingState(%d)", int(s))
	}
}

// Element is one rendered object on a slide.
type Element struct {
	ID         string          `json:"id"`
	SlideID    string          `json:"slideId"`
	Properties json.RawMessage `json:"properties"`
}

// PendingEdit tracks a locally created element until its broadcast comes back.
type PendingEdit struct {
	TempID   string
	SlideID  string
	Payload  json.RawMessage
	State    PendingState
	ServerID string
	// Latest holds properties set locally while the create was pending. They still
	// need to reach the server once the element has its server id.
	Latest json.RawMessage

	key     string
	deleted bool
}

// ElementAdded mirrors the server event.
type ElementAdded struct {
	SlideID         string  `json:"slideId"`
	Element         Element `json:"element"`
	InitiatorUserID string  `json:"initiatorUserId"`
}

// ElementUpdated mirrors the server event.
type ElementUpdated struct {
	ElementID       string  `json:"elementId"`
	Element         Element `json:"element"`
	InitiatorUserID string  `json:"initiatorUserId"`
}

// ElementDeleted mirrors the server event.
type ElementDeleted struct {
	ElementID       string `json:"elementId"`
	SlideID         string `json:"slideId"`
	InitiatorUserID string `json:"initiatorUserId"`
}

// Outcome reports what applying a broadcast did to the canvas.
type Outcome int

const (
	// Applied means the change came from someone else and was rendered.
	Applied Outcome = iota
	// Reconciled means a pending create was confirmed in place.
	Reconciled
	// DiscardedLocal means the confirmed create had already been deleted locally; the
	// caller should delete the server copy using the returned id.
	DiscardedLocal
	// Ignored means the local state was already correct.
	Ignored
	// ReconciledUpdate confirms a create that was edited locally while pending; the
	// caller should send updateSlideElement for the returned id with Properties(id).
	ReconciledUpdate
)

// Canvas is the client-side element model of one presentation. It renders local edits
// immediately and reconciles them against the room broadcasts.
type Canvas struct {
	self string

	mu       sync.Mutex
	elements map[string]*Element
	order    []string
	pending  []*PendingEdit
	edits    map[string]*PendingEdit
	nextTemp int
}

// NewCanvas creates an empty canvas for the given user.
func NewCanvas(selfUserID string) *Canvas {
	return &Canvas{
		self:     selfUserID,
		elements: make(map[string]*Element),
		edits:    make(map[string]*PendingEdit),
	}
}

// AddLocal renders an optimistic element and returns its temporary id. properties is
// what will be sent with addSlideElement.
func (c *Canvas) AddLocal(slideID string, properties json.RawMessage) (string, error) {
	key, err := canonical(properties)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextTemp++
	tempID := fmt.Sprintf("local-%d", c.nextTemp)
	c.put(&Element{ID: tempID, SlideID: slideID, Properties: cloneRaw(properties)})
	edit := &PendingEdit{
		TempID:  tempID,
		SlideID: slideID,
		Payload: cloneRaw(properties),
		State:   Pending,
		key:     key,
	}
	c.pending = append(c.pending, edit)
	c.edits[tempID] = edit
	return tempID, nil
}

// DeleteLocal removes an element from view. For a pending create the server id is not
// known yet; the returned flag is false and the deletion completes on confirmation.
func (c *Canvas) DeleteLocal(id string) (serverID string, sendNow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(id)
	for _, edit := range c.pending {
		if edit.TempID == id && edit.State == Pending {
			edit.deleted = true
			return "", false
		}
	}
	return id, true
}

// UpdateLocal renders new properties for an element. ok is false for unknown ids. For a
// pending create sendNow is false: the update is held and reported by ApplyAdded.
func (c *Canvas) UpdateLocal(id string, properties json.RawMessage) (sendNow, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.elements[id]
	if !found {
		return false, false
	}
	element.Properties = cloneRaw(properties)
	if edit, pending := c.edits[id]; pending && edit.State == Pending {
		edit.Latest = cloneRaw(properties)
		return false, true
	}
	return true, true
}

// Properties returns the rendered properties of an element.
func (c *Canvas) Properties(id string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.elements[id]
	if !ok {
		return nil, false
	}
	return cloneRaw(element.Properties), true
}

// ApplyAdded handles ElementAdded. A self-initiated broadcast whose payload matches a
// pending create confirms it in place rather than rendering a second copy.
func (c *Canvas) ApplyAdded(ev ElementAdded) (Outcome, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slideID := ev.SlideID
	if slideID == "" {
		slideID = ev.Element.SlideID
	}

	if ev.InitiatorUserID == c.self {
		if edit := c.match(slideID, ev.Element.Properties); edit != nil {
			edit.ServerID = ev.Element.ID
			c.dropPending(edit)

			if edit.deleted {
				edit.State = Discarded
				return DiscardedLocal, ev.Element.ID
			}
			edit.State = Confirmed
			c.rename(edit.TempID, ev.Element.ID)
			if edit.Latest != nil {
				return ReconciledUpdate, ev.Element.ID
			}
			return Reconciled, ev.Element.ID
		}
	}

	if _, exists := c.elements[ev.Element.ID]; exists {
		return Ignored, ev.Element.ID
	}
	c.put(&Element{ID: ev.Element.ID, SlideID: slideID, Properties: cloneRaw(ev.Element.Properties)})
	return Applied, ev.Element.ID
}

// ApplyUpdated handles ElementUpdated. The initiator already shows the change.
func (c *Canvas) ApplyUpdated(ev ElementUpdated) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.InitiatorUserID == c.self {
		return Ignored
	}
	element, ok := c.elements[ev.ElementID]
	if !ok {
		return Ignored
	}
	element.Properties = cloneRaw(ev.Element.Properties)
	return Applied
}

// ApplyDeleted handles ElementDeleted.
func (c *Canvas) ApplyDeleted(ev ElementDeleted) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.elements[ev.ElementID]; !ok || ev.InitiatorUserID == c.self {
		return Ignored
	}
	c.remove(ev.ElementID)
	return Applied
}

// Elements returns the rendered elements of a slide in insertion order.
func (c *Canvas) Elements(slideID string) []Element {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []Element{}
	for _, id := range c.order {
		if element := c.elements[id]; element.SlideID == slideID {
			out = append(out, *element)
		}
	}
	return out
}

// Edit returns the bookkeeping of a local create by temporary id.
func (c *Canvas) Edit(tempID string) (PendingEdit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	edit, ok := c.edits[tempID]
	if !ok {
		return PendingEdit{}, false
	}
	return *edit, true
}

// PendingCount reports creates still waiting for confirmation.
func (c *Canvas) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// match finds the oldest pending create on slideID with an equal payload.
func (c *Canvas) match(slideID string, properties json.RawMessage) *PendingEdit {
	key, err := canonical(properties)
	if err != nil {
		return nil
	}
	for _, edit := range c.pending {
		if edit.State == Pending && edit.SlideID == slideID && edit.key == key {
			return edit
		}
	}
	return nil
}

func (c *Canvas) dropPending(target *PendingEdit) {
	kept := c.pending[:0]
	for _, edit := range c.pending {
		if edit != target {
			kept = append(kept, edit)
		}
	}
	c.pending = kept
}

func (c *Canvas) put(element *Element) {
	if _, exists := c.elements[element.ID]; !exists {
		c.order = append(c.order, element.ID)
	}
	c.elements[element.ID] = element
}

func (c *Canvas) remove(id string) {
	if _, ok := c.elements[id]; !ok {
		return
	}
	delete(c.elements, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// rename swaps a temporary id for the server id, keeping the element's position.
func (c *Canvas) rename(from, to string) {
	element, ok := c.elements[from]
	if !ok {
		return
	}
	delete(c.elements, from)
	element.ID = to
	c.elements[to] = element
	for i, existing := range c.order {
		if existing == from {
			c.order[i] = to
			break
		}
	}
}

// canonical re-encodes JSON so that key order and whitespace do not affect equality.
func canonical(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err == nil {
			trimmed = []byte(inner)
		}
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return "", fmt.Errorf("client: properties are not valid JSON: %w", err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), raw...)
}
