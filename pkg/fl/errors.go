package fl

import "errors"

var (
	ErrInsufficientParticipants = errors.New("insufficient participants")
	ErrNoContributors           = errors.New("no participant contributed to the round")
	ErrParticipantFailure       = errors.New("participant failure")
	ErrParticipantTimeout       = errors.New("participant timed out")
	ErrConfiguration            = errors.New("invalid round configuration")
	ErrShapeMismatch            = errors.New("parameter shape mismatch")
	ErrNonFinite                = errors.New("result contains NaN or infinite values")
	ErrStaleRound               = errors.New("round is not newer than the last applied round")
	ErrInvalidStateTransition   = errors.New("invalid state transition")
)
