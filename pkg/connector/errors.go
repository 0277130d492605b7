package connector

import "errors"

// ErrNoResponse is reported when a rig accepts the connection but does not
// answer within its timeout.
var ErrNoResponse = errors.New("no response")
