package collab

import (
	"fmt"
	"sync"
	"time"

	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// Mode names the two presentation modes.
type Mode string

const (
	ModeEdit    Mode = "Edit"
	ModePresent Mode = "Present"
)

// ModeState is either {Edit} or {Present, index, presenter}. Only Present carries
// the remaining fields.
type ModeState struct {
	Mode              Mode   `json:"mode"`
	CurrentSlideIndex int    `json:"currentSlideIndex"`
	PresenterID       string `json:"presenterId,omitempty"`
	PresenterNickname string `json:"presenterNickname,omitempty"`
}

// Presenting reports whether the state is the Present variant.
func (s ModeState) Presenting() bool { return s.Mode == ModePresent }

func editState() ModeState { return ModeState{Mode: ModeEdit} }

// Move computes the requested slide index from the current one.
type Move func(current, total int) int

// NextSlide advances by one.
func NextSlide(current, _ int) int { return current + 1 }

// PrevSlide goes back by one.
func PrevSlide(current, _ int) int { return current - 1 }

// GoToSlide jumps to index.
func GoToSlide(index int) Move {
	return func(int, int) int { return index }
}

// presentSession fields are guarded by the presentation's keyed lock. awaySince is
// additionally written under Modes.mu so Away can scan without the keyed locks.
type presentSession struct {
	index             int
	presenterID       string
	presenterNickname string
	awaySince         time.Time
}

func (s *presentSession) state() ModeState {
	return ModeState{
		Mode:              ModePresent,
		CurrentSlideIndex: s.index,
		PresenterID:       s.presenterID,
		PresenterNickname: s.presenterNickname,
	}
}

// Modes holds the Present sessions. Absence of an entry is the Edit state.
type Modes struct {
	locks *keyedMutex
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[string]*presentSession
}

// NewModes constructs an empty registry. A nil clock uses time.Now.
func NewModes(clock func() time.Time) *Modes {
	if clock == nil {
		clock = time.Now
	}
	return &Modes{
		locks:    newKeyedMutex(),
		now:      clock,
		sessions: make(map[string]*presentSession),
	}
}

// State returns the current variant for a presentation.
func (m *Modes) State(presentationID string) ModeState {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	if s := m.session(presentationID); s != nil {
		return s.state()
	}
	return editState()
}

// Start creates or overwrites the Present entry at index.
func (m *Modes) Start(presentationID, presenterID, presenterNickname string, index, total int) (ModeState, error) {
	if index < 0 || index >= total {
		return editState(), apperrors.NewInvalidArgument(fmt.Sprintf("slide index %d is out of range for %d slides", index, total))
	}

	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := &presentSession{
		index:             index,
		presenterID:       presenterID,
		presenterNickname: presenterNickname,
	}
	m.mu.Lock()
	m.sessions[presentationID] = s
	m.mu.Unlock()

	return s.state(), nil
}

// Stop removes the Present entry, returning the state it had.
func (m *Modes) Stop(presentationID string) (ModeState, bool) {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := m.session(presentationID)
	if s == nil {
		return editState(), false
	}
	m.remove(presentationID)
	return s.state(), true
}

// Navigate applies move on behalf of callerID. Targets outside [0,total) and moves that
// land on the current index are silent no-ops; changed is false for them.
func (m *Modes) Navigate(presentationID, callerID string, total int, move Move) (state ModeState, changed bool, err error) {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := m.session(presentationID)
	if s == nil {
		return editState(), false, ErrNotPresenting
	}
	if s.presenterID != callerID {
		return s.state(), false, apperrors.NewUnauthorized("Only the presenter can change slides")
	}
	if total <= 0 {
		return s.state(), false, nil
	}

	current := clampIndex(s.index, total)
	changed = current != s.index
	s.index = current

	if target := move(current, total); target >= 0 && target < total && target != current {
		s.index = target
		changed = true
	}
	return s.state(), changed, nil
}

// Clamp pulls the index back inside [0,total) after slides were removed. With no
// slides left the session ends.
func (m *Modes) Clamp(presentationID string, total int) (state ModeState, moved, stopped bool) {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := m.session(presentationID)
	if s == nil {
		return editState(), false, false
	}
	if total <= 0 {
		m.remove(presentationID)
		return s.state(), false, true
	}

	clamped := clampIndex(s.index, total)
	moved = clamped != s.index
	s.index = clamped
	return s.state(), moved, false
}

// PresenterAway records when userID, if presenting, lost its last connection to the room.
func (m *Modes) PresenterAway(presentationID, userID string) bool {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := m.session(presentationID)
	if s == nil || s.presenterID != userID {
		return false
	}
	m.mu.Lock()
	if s.awaySince.IsZero() {
		s.awaySince = m.now()
	}
	m.mu.Unlock()
	return true
}

// PresenterBack clears the away mark when the presenter rejoins.
func (m *Modes) PresenterBack(presentationID, userID string) bool {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := m.session(presentationID)
	if s == nil || s.presenterID != userID {
		return false
	}
	m.mu.Lock()
	s.awaySince = time.Time{}
	m.mu.Unlock()
	return true
}

// StopIfAbandoned ends the session when its presenter has been away longer than grace.
func (m *Modes) StopIfAbandoned(presentationID string, grace time.Duration) (ModeState, bool) {
	unlock := m.locks.Lock(presentationID)
	defer unlock()

	s := m.session(presentationID)
	if s == nil || s.awaySince.IsZero() || m.now().Sub(s.awaySince) < grace {
		return editState(), false
	}
	m.remove(presentationID)
	return s.state(), true
}

// Away lists presentations whose presenter is currently away.
func (m *Modes) Away() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, s := range m.sessions {
		if !s.awaySince.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Count reports the number of Present sessions.
func (m *Modes) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Modes) session(presentationID string) *presentSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[presentationID]
}

func (m *Modes) remove(presentationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, presentationID)
}

func clampIndex(index, total int) int {
	switch {
	case index < 0:
		return 0
	case index >= total:
		return total - 1
	default:
		return index
	}
}
