package collab

import apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"

var (
	// ErrNotPresenting is returned by navigation and stop commands in Edit mode.
	ErrNotPresenting = apperrors.NewInvalidArgument("Presentation is not in present mode")

	errNotInRoom       = apperrors.NewInvalidArgument("Join a presentation first")
	errOtherIdentity   = apperrors.ErrConflict.WithMessage("Connection is already identified as another user")
	errCreatorIsEditor = apperrors.NewInvalidArgument("The creator always has editing rights")
)
