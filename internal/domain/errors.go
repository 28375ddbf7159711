package domain

import "errors"

var (
	ErrSelfLoop         = errors.New("cannot connect a device to itself")
	ErrCapacityExceeded = errors.New("maximum number of devices reached")
	ErrUnknownDevice    = errors.New("unknown device")
	ErrStoreIO          = errors.New("connection log unavailable")
	ErrMalformedRecord  = errors.New("malformed connection record")
	ErrInvalidAddress   = errors.New("invalid device address")
)
