// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

// Unexpected is a failure the caller cannot act on, such as an undecodable snapshot.
type Unexpected struct {
	base
}

func (u Unexpected) Error() string {
	return u.error()
}

// NewUnexpected creates an Unexpected error.
func NewUnexpected(message string, err ...error) Unexpected {
	return Unexpected{base: newBase(message, err)}
}

// ServiceUnavailable means a dependency (NATS, the index store) cannot serve the request right now.
type ServiceUnavailable struct {
	base
}

func (su ServiceUnavailable) Error() string {
	return su.error()
}

// NewServiceUnavailable creates a ServiceUnavailable error.
func NewServiceUnavailable(message string, err ...error) ServiceUnavailable {
	return ServiceUnavailable{base: newBase(message, err)}
}
