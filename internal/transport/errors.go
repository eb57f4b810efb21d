package transport

import "errors"

// ErrProtocol marks a spec.md §7 "Protocol" error: a malformed or
// unrecognised client message. Callers should log and continue rather than
// tear down the session; use errors.Is(err, ErrProtocol) to distinguish it
// from a real connection failure returned by ReadEvent.
var ErrProtocol = errors.New("protocol error")

// errUnknownEvent is kept as an internal alias of ErrProtocol.
var errUnknownEvent = ErrProtocol
