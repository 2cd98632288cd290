package domain

import "errors"

// ErrActionNotFound is returned when an action name is not declared in the
// document's action table.
var ErrActionNotFound = errors.New("action not found")

// ErrActionInFlight is returned when an action is triggered while another
// publish is still outstanding for the same document instance.
var ErrActionInFlight = errors.New("action already in flight")

// ErrPublishRejected is returned when no destination accepted the event.
var ErrPublishRejected = errors.New("publish rejected by all destinations")

// ErrComponentNotFound is returned by fetchers when an address does not
// resolve to a component definition.
var ErrComponentNotFound = errors.New("component not found")
