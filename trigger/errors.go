package trigger

import "errors"

var (
	ErrClientNil         = errors.New("trigger: redis client is nil")
	ErrAlreadySubscribed = errors.New("trigger: already subscribed")
	ErrNotSubscribed     = errors.New("trigger: not subscribed")
)
