// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbrite

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type continuationToken struct {
	Page int `json:"page"`
}

// EncodeContinuation builds the opaque continuation token selecting page n.
// The payload is the base64 (standard alphabet) of {"page": n}.
func EncodeContinuation(page int) string {
	payload := fmt.Sprintf(`{"page": %d}`, page)
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// DecodeContinuation returns the page number carried by a continuation token.
func DecodeContinuation(token string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid continuation encoding: %w", err)
	}

	var decoded continuationToken
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("invalid continuation payload: %w", err)
	}
	return decoded.Page, nil
}
