// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package errors defines the typed errors the attendee auth service maps to
// operator responses. Each kind carries a message and an optional joined cause.
package errors

import (
	"errors"
	"fmt"
)

type base struct {
	message string
	err     error
}

func newBase(message string, causes []error) base {
	return base{message: message, err: errors.Join(causes...)}
}

// error renders "message: cause", or just the message without a cause.
func (b base) error() string {
	if b.err == nil {
		return b.message
	}
	return fmt.Sprintf("%s: %v", b.message, b.err)
}

// Unwrap exposes the joined causes to errors.Is / errors.As.
func (b base) Unwrap() error {
	return b.err
}
