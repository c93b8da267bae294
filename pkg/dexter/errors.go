package dexter

import "errors"

// Transition errors. Every rejected transition wraps one of these so callers
// can match with errors.Is while still seeing the violated precondition.
var (
	ErrNotAuthorized            = errors.New("not authorized")
	ErrInvalidPhaseTransition   = errors.New("invalid phase transition")
	ErrInvalidTeamSize          = errors.New("invalid team size")
	ErrInvalidSelection         = errors.New("invalid selection")
	ErrGameFull                 = errors.New("game is full")
	ErrPlayerCountOutOfRange    = errors.New("player count out of range")
	ErrRoleAssignmentImpossible = errors.New("role assignment impossible")
	ErrCardNotPlayable          = errors.New("management card not playable now")
	ErrAlreadyJoined            = errors.New("already joined this game")
	ErrNotInGame                = errors.New("player is not in this game")
)
