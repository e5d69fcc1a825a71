// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultGracefulShutdownSeconds(t *testing.T) {
	tests := []struct {
		name   string
		budget time.Duration
		want   int
	}{
		{name: "short budget keeps the floor", budget: 5 * time.Second, want: minGracefulShutdownSeconds},
		{name: "default eventbrite budget", budget: 72 * time.Second, want: 77},
		{name: "fractional seconds round up", budget: 30*time.Second + time.Millisecond, want: 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultGracefulShutdownSeconds(tt.budget))
		})
	}
}
