package domain

import "errors"

// ErrVariableNotFound is returned when an operation references an unregistered variable.
var ErrVariableNotFound = errors.New("variable not found")

// ErrDuplicateVariable is returned when registering an id twice.
var ErrDuplicateVariable = errors.New("variable already registered")

// ErrInvalidVariable is returned for malformed variable definitions.
var ErrInvalidVariable = errors.New("invalid variable definition")

// ErrInvalidCondition is returned for a malformed condition tree.
var ErrInvalidCondition = errors.New("invalid condition")

// ErrProjectNotFound is returned when a project document cannot be found in the store.
var ErrProjectNotFound = errors.New("project not found")

// ErrNoPlaythrough is returned when a choice is made before a playthrough starts.
var ErrNoPlaythrough = errors.New("no active playthrough")

// ErrChoiceNotFound is returned when a choice id is not offered by the current scene.
var ErrChoiceNotFound = errors.New("choice not found")

// ErrChoiceUnavailable is returned when a gated choice is blocked and has no usable fallback.
var ErrChoiceUnavailable = errors.New("choice unavailable")
