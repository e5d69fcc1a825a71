// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

// Validation represents rejected input, e.g. a lookup without an e-mail.
type Validation struct {
	base
}

func (v Validation) Error() string {
	return v.error()
}

// NewValidation creates a Validation error.
func NewValidation(message string, err ...error) Validation {
	return Validation{base: newBase(message, err)}
}

// NotFound represents an unknown resource or operator subject.
type NotFound struct {
	base
}

func (n NotFound) Error() string {
	return n.error()
}

// NewNotFound creates a NotFound error.
func NewNotFound(message string, err ...error) NotFound {
	return NotFound{base: newBase(message, err)}
}

// Conflict represents an operation that clashes with one already in progress.
type Conflict struct {
	base
}

func (c Conflict) Error() string {
	return c.error()
}

// NewConflict creates a Conflict error.
func NewConflict(message string, err ...error) Conflict {
	return Conflict{base: newBase(message, err)}
}

// Unauthorized represents a missing or rejected credential.
type Unauthorized struct {
	base
}

func (u Unauthorized) Error() string {
	return u.error()
}

// NewUnauthorized creates an Unauthorized error.
func NewUnauthorized(message string, err ...error) Unauthorized {
	return Unauthorized{base: newBase(message, err)}
}
