package keybackend

import "errors"

// ErrUnknownSource is returned when the configured credentials source is not recognised.
var ErrUnknownSource = errors.New("unknown credentials source")
