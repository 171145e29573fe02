package attendance

import "errors"

// Domain rejections. These are expected outcomes rendered as informative
// replies, not failures.
var (
	ErrAlreadyCheckedIn = errors.New("member is already checked in")
	ErrNoOpenSession    = errors.New("member is not checked in")
	ErrNotAuthorized    = errors.New("member is not authorized for this action")
)
