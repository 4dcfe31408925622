package pit

import "errors"

// ErrInvalidSignature is the cause wrapped in the KindInvalidPit error
// that Decode returns when the blob does not begin with the PIT magic
// value.
var ErrInvalidSignature = errors.New("pit: invalid signature")
