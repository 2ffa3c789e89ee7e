package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownStep is returned when a transition names a step the graph does
// not define. It is fatal for the session.
var ErrUnknownStep = errors.New("unknown step")

// ErrSessionHalted is returned for sessions stopped by a fatal error.
var ErrSessionHalted = errors.New("session halted")

// ErrSessionTerminal is returned when answering a finished conversation.
var ErrSessionTerminal = errors.New("session already reached a terminal step")

// ErrNotAwaitingInput is returned when an answer arrives before Start.
var ErrNotAwaitingInput = errors.New("session is not awaiting input")

// ErrSessionIDRequired is returned for an empty session id.
var ErrSessionIDRequired = errors.New("session id is required")
