package parse

import "errors"

// Sentinel parse errors, wrapped with fmt.Errorf("...: %w", ...) at
// each raise site so callers can errors.Is against them per §7's
// propagation policy.
var (
	ErrUnknownPredicate = errors.New("parse: unknown predicate")
	ErrMissingArgument   = errors.New("parse: missing argument")
	ErrInvalidArgument   = errors.New("parse: invalid argument")
	ErrUnexpectedToken   = errors.New("parse: unexpected token")
	ErrUnresolvedName    = errors.New("parse: unresolved user or group name")
	ErrUnsupported       = errors.New("parse: unsupported on this platform")
)
