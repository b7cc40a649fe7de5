package eventstream

import "errors"

// ErrNilEvent indicates a nil document event payload was provided to a publisher.
var ErrNilEvent = errors.New("nil document event")
