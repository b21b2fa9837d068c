package http

import "errors"

// ErrInvalidSlipID is returned when a slip id in the URL is not a UUID.
var ErrInvalidSlipID = errors.New("invalid slip id")
