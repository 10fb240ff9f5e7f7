package scheduler

import "errors"

// ErrLockUnsupported is returned when leader locking is requested on a store
// without named or advisory locks.
var ErrLockUnsupported = errors.New("tick lock requires postgres or mysql")
