package types

import "errors"

// ErrVersionConflict is returned when a resume write carries a stale version
var ErrVersionConflict = errors.New("resume was modified concurrently")
