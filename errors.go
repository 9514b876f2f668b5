package roomlog

import "errors"

// ErrNoStore is returned when a Log is created without a store.
var ErrNoStore = errors.New("roomlog: store is required")
