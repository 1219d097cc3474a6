package collab

import (
	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/models"
)

// GroupGlobalUsers receives catalog-level events for every identified connection.
const GroupGlobalUsers = "global-users"

// PresentationGroup names the room of a presentation.
func PresentationGroup(presentationID string) string {
	return "presentation:" + presentationID
}

// Event names pushed to clients.
const (
	EventUserConnected             = "UserConnected"
	EventUserDisconnected          = "UserDisconnected"
	EventSessionTicket             = "SessionTicket"
	EventPresentationCreated       = "PresentationCreated"
	EventPresentationDeleted       = "PresentationDeleted"
	EventJoinedPresentation        = "JoinedPresentation"
	EventUserJoinedPresentation    = "UserJoinedPresentation"
	EventUserLeftPresentation      = "UserLeftPresentation"
	EventConnectedUsersListUpdated = "ConnectedUsersListUpdated"
	EventSlideAdded                = "SlideAdded"
	EventSlideDeleted              = "SlideDeleted"
	EventSlidesReordered           = "SlidesReordered"
	EventElementAdded              = "ElementAdded"
	EventElementUpdated            = "ElementUpdated"
	EventElementDeleted            = "ElementDeleted"
	EventEditorGranted             = "EditorGranted"
	EventEditorRemoved             = "EditorRemoved"
	EventUserUpdateRights          = "UserUpdateRights"
	EventPresentationStarted       = "PresentationStarted"
	EventPresentationStopped       = "PresentationStopped"
	EventSlideChanged              = "SlideChanged"
)

// Reasons carried by PresentationStopped.
const (
	StopReasonStopped       = "stopped"
	StopReasonNoSlides      = "no_slides"
	StopReasonPresenterLeft = "presenter_left"
)

// UserPresence is sent when a user's first connection identifies and after its last one closes.
type UserPresence struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// SessionTicket hands the caller a token for resumeSession.
type SessionTicket = auth.Ticket

type PresentationCreated struct {
	Presentation *models.Presentation `json:"presentation"`
	CreatedBy    UserPresence         `json:"createdBy"`
}

type PresentationDeleted struct {
	PresentationID string `json:"presentationId"`
	DeletedBy      string `json:"deletedBy"`
}

// JoinedPresentation is the join response: the full presentation, the caller's
// rights, the room and the current mode.
type JoinedPresentation struct {
	Presentation *models.Presentation `json:"presentation"`
	User         UserPresence         `json:"user"`
	CanEdit      bool                 `json:"canEdit"`
	Participants []Participant        `json:"participants"`
	Mode         ModeState            `json:"mode"`
}

type RoomMember struct {
	PresentationID string `json:"presentationId"`
	UserID         string `json:"userId"`
	Nickname       string `json:"nickname"`
	CanEdit        bool   `json:"canEdit,omitempty"`
}

type ConnectedUsersListUpdated struct {
	PresentationID string        `json:"presentationId"`
	Users          []Participant `json:"users"`
}

type SlideAdded struct {
	Slide           *models.Slide `json:"slide"`
	InitiatorUserID string        `json:"initiatorUserId"`
}

type SlideDeleted struct {
	SlideID         string `json:"slideId"`
	PresentationID  string `json:"presentationId"`
	InitiatorUserID string `json:"initiatorUserId"`
}

type SlidesReordered struct {
	PresentationID  string         `json:"presentationId"`
	Slides          []models.Slide `json:"slides"`
	InitiatorUserID string         `json:"initiatorUserId"`
}

type ElementAdded struct {
	SlideID         string               `json:"slideId"`
	Element         *models.SlideElement `json:"element"`
	InitiatorUserID string               `json:"initiatorUserId"`
}

type ElementUpdated struct {
	ElementID       string               `json:"elementId"`
	Element         *models.SlideElement `json:"element"`
	InitiatorUserID string               `json:"initiatorUserId"`
}

type ElementDeleted struct {
	ElementID       string `json:"elementId"`
	SlideID         string `json:"slideId"`
	InitiatorUserID string `json:"initiatorUserId"`
}

// EditorChanged backs both EditorGranted and EditorRemoved.
type EditorChanged struct {
	PresentationID  string `json:"presentationId"`
	UserID          string `json:"userId"`
	Nickname        string `json:"nickname"`
	InitiatorUserID string `json:"initiatorUserId"`
}

type UserUpdateRights struct {
	UserID         string `json:"userId"`
	Nickname       string `json:"nickname"`
	CanEdit        bool   `json:"canEdit"`
	PresentationID string `json:"presentationId"`
}

type PresentationStarted struct {
	PresentationID    string `json:"presentationId"`
	PresenterID       string `json:"presenterId"`
	PresenterNickname string `json:"presenterNickname"`
	CurrentSlideIndex int    `json:"currentSlideIndex"`
	TotalSlides       int    `json:"totalSlides"`
}

type PresentationStopped struct {
	PresentationID    string `json:"presentationId"`
	StoppedByUserID   string `json:"stoppedByUserId,omitempty"`
	StoppedByNickname string `json:"stoppedByNickname,omitempty"`
	Reason            string `json:"reason"`
}

type SlideChanged struct {
	PresentationID    string `json:"presentationId"`
	CurrentSlideIndex int    `json:"currentSlideIndex"`
	TotalSlides       int    `json:"totalSlides"`
	ChangedByUserID   string `json:"changedByUserId"`
}

func presentationStarted(presentationID string, state ModeState, total int) PresentationStarted {
	return PresentationStarted{
		PresentationID:    presentationID,
		PresenterID:       state.PresenterID,
		PresenterNickname: state.PresenterNickname,
		CurrentSlideIndex: state.CurrentSlideIndex,
		TotalSlides:       total,
	}
}
