package visits

import "errors"

var (
	// ErrQueueFull is returned by Enqueue when the visit queue is saturated.
	ErrQueueFull = errors.New("visit queue full")

	// ErrDenied is returned by Enqueue for addresses on the denylist.
	ErrDenied = errors.New("address excluded from logging")

	// ErrUnsupportedDriver is returned by Open for unknown database drivers.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
