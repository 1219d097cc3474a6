package collab

import "sync"

// Participant is one user present in a presentation room.
type Participant struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	CanEdit  bool   `json:"canEdit"`
}

type participantRecord struct {
	Participant
	conns map[string]struct{}
}

// room is only touched while holding its presentation lock.
type room struct {
	records []*participantRecord
}

// Presence tracks who is connected to which presentation. A user holds at most one
// record per presentation however many connections they open.
type Presence struct {
	locks *keyedMutex

	// mu guards the rooms map itself, not the room contents.
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewPresence constructs an empty registry.
func NewPresence() *Presence {
	return &Presence{
		locks: newKeyedMutex(),
		rooms: make(map[string]*room),
	}
}

// Join adds connID to the user's record, creating it when absent. canEdit replaces any
// cached flag because callers pass the persisted truth. first reports a new record.
func (p *Presence) Join(presentationID, connID, userID, nickname string, canEdit bool) (snapshot []Participant, first bool) {
	unlock := p.locks.Lock(presentationID)
	defer unlock()

	r := p.room(presentationID)
	if r == nil {
		r = &room{}
		p.mu.Lock()
		p.rooms[presentationID] = r
		p.mu.Unlock()
	}

	record := r.find(userID)
	if record == nil {
		record = &participantRecord{
			Participant: Participant{UserID: userID},
			conns:       make(map[string]struct{}),
		}
		r.records = append(r.records, record)
		first = true
	}
	record.Nickname = nickname
	record.CanEdit = canEdit
	record.conns[connID] = struct{}{}

	return r.snapshot(), first
}

// Leave detaches connID. The record goes away with the user's last connection and the
// room with its last record. removed reports that the user is no longer present.
func (p *Presence) Leave(presentationID, connID, userID string) (snapshot []Participant, removed bool) {
	unlock := p.locks.Lock(presentationID)
	defer unlock()

	r := p.room(presentationID)
	if r == nil {
		return []Participant{}, false
	}
	record := r.find(userID)
	if record == nil {
		return r.snapshot(), false
	}

	delete(record.conns, connID)
	if len(record.conns) > 0 {
		return r.snapshot(), false
	}

	kept := r.records[:0]
	for _, other := range r.records {
		if other != record {
			kept = append(kept, other)
		}
	}
	r.records = kept

	if len(kept) == 0 {
		p.mu.Lock()
		delete(p.rooms, presentationID)
		p.mu.Unlock()
	}
	return r.snapshot(), true
}

// UpdateRights changes the live flag of a present user. Absent users are left alone;
// their next Join reads the persisted state.
func (p *Presence) UpdateRights(presentationID, userID string, canEdit bool) (snapshot []Participant, updated bool) {
	unlock := p.locks.Lock(presentationID)
	defer unlock()

	r := p.room(presentationID)
	if r == nil {
		return []Participant{}, false
	}
	if record := r.find(userID); record != nil {
		record.CanEdit = canEdit
		updated = true
	}
	return r.snapshot(), updated
}

// Snapshot returns a copy of the participants in join order.
func (p *Presence) Snapshot(presentationID string) []Participant {
	unlock := p.locks.Lock(presentationID)
	defer unlock()

	r := p.room(presentationID)
	if r == nil {
		return []Participant{}
	}
	return r.snapshot()
}

// Participant looks up a single present user.
func (p *Presence) Participant(presentationID, userID string) (Participant, bool) {
	unlock := p.locks.Lock(presentationID)
	defer unlock()

	if r := p.room(presentationID); r != nil {
		if record := r.find(userID); record != nil {
			return record.Participant, true
		}
	}
	return Participant{}, false
}

// Drop removes a room entirely and returns the connections that were in it.
func (p *Presence) Drop(presentationID string) []string {
	unlock := p.locks.Lock(presentationID)
	defer unlock()

	r := p.room(presentationID)
	if r == nil {
		return nil
	}

	var conns []string
	for _, record := range r.records {
		for connID := range record.conns {
			conns = append(conns, connID)
		}
	}

	p.mu.Lock()
	delete(p.rooms, presentationID)
	p.mu.Unlock()
	return conns
}

// RoomCount reports the number of presentations with at least one participant.
func (p *Presence) RoomCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rooms)
}

func (p *Presence) room(presentationID string) *room {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rooms[presentationID]
}

func (r *room) find(userID string) *participantRecord {
	for _, record := range r.records {
		if record.UserID == userID {
			return record
		}
	}
	return nil
}

func (r *room) snapshot() []Participant {
	out := make([]Participant, len(r.records))
	for i, record := range r.records {
		out[i] = record.Participant
	}
	return out
}
