package transport

import "errors"

// ErrConnectionReset marks a transient gateway disconnect. The gateway
// resumes on its own, so this class of fault is logged and ignored.
var ErrConnectionReset = errors.New("transport: connection reset")
