// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package redaction masks personal data before it reaches logs.
package redaction

import "strings"

const mask = "***"

// RedactEmail keeps the first character of the local part and the domain.
// "jane.doe@example.com" becomes "j***@example.com".
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return mask
	}

	return email[:1] + mask + email[at:]
}
