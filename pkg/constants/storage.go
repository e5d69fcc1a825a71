// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (
	// KVBucketNameAttendeeIndex is the name of the KV bucket holding the attendee index.
	KVBucketNameAttendeeIndex = "attendee-index"

	// KVKeyAttendeePrefix prefixes every attendee entry; the suffix is a hash of the e-mail.
	KVKeyAttendeePrefix = "attendee."
	// KVKeyAttendeePattern is the full key pattern for a single attendee entry
	KVKeyAttendeePattern = KVKeyAttendeePrefix + "%s"
	// KVKeyIndexMeta holds the index watermark
	KVKeyIndexMeta = "meta.updated_at"

	// DefaultIndexPath is where the file backend keeps its snapshot
	DefaultIndexPath = "data/attendee-index.msgpack"
)
