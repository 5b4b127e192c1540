package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrNotCancellable          = errors.New("appointment can no longer be cancelled")
	ErrNotReschedulable        = errors.New("appointment can no longer be rescheduled")
)
