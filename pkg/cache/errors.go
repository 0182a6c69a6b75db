package cache

import "errors"

// ErrCorrupt is returned when a cached entry fails its integrity check.
var ErrCorrupt = errors.New("corrupt cache entry")
