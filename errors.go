package notify

import "errors"

var (
	// ErrNotFound is returned by storage implementations when a requested
	// record does not exist.
	ErrNotFound = errors.New("notify: not found")

	// ErrNoDeliveryToClaim signals an empty pending queue. It is a normal
	// condition, not a failure.
	ErrNoDeliveryToClaim = errors.New("notify: no delivery to claim")

	// ErrInvalidTransition is returned when a status update would violate
	// the delivery lifecycle (e.g. mutating a terminal row).
	ErrInvalidTransition = errors.New("notify: invalid status transition")

	// ErrStorageNil is returned by constructors when no storage is provided.
	ErrStorageNil = errors.New("notify: storage is nil")

	// ErrNoSenders is returned when a dispatcher is started without any
	// registered channel senders.
	ErrNoSenders = errors.New("notify: no channel senders registered")

	// ErrSenderNotRegistered is recorded on a delivery whose channel has no
	// configured sender. The delivery fails without a transport attempt.
	ErrSenderNotRegistered = errors.New("notify: no sender registered for channel")

	// ErrAlreadyStarted and ErrNotStarted guard the dispatcher run loop.
	ErrAlreadyStarted = errors.New("notify: dispatcher already started")
	ErrNotStarted     = errors.New("notify: dispatcher not started")
)
