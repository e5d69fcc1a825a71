// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"fmt"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// Index persistence backends
const (
	// IndexSourceFile keeps a snapshot on the local filesystem
	IndexSourceFile = "file"

	// IndexSourceNATS keeps the index in a JetStream key-value bucket
	IndexSourceNATS = "nats"

	// IndexSourceMemory keeps the index in process memory only
	IndexSourceMemory = "memory"
)

// ValidateIndexSource validates that the index source is one of the allowed values
func ValidateIndexSource(source string) error {
	switch source {
	case IndexSourceFile, IndexSourceNATS, IndexSourceMemory:
		return nil
	case "":
		return errors.NewValidation("index source is required")
	default:
		return errors.NewValidation(
			fmt.Sprintf("unsupported index source: %s (must be file, nats, or memory)", source))
	}
}

// ValidIndexSources returns list of all valid index sources for documentation
func ValidIndexSources() []string {
	return []string{IndexSourceFile, IndexSourceNATS, IndexSourceMemory}
}
