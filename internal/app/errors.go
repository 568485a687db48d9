package service

import "errors"

// ErrMissingCollaborator indicates the service was started without an
// oracle, resolver, or awarder.
var ErrMissingCollaborator = errors.New("oracle, resolver and awarder are required")
