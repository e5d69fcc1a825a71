// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// AttendeeAuthAPIQueue is the NATS queue group for attendee auth service subscriptions
const AttendeeAuthAPIQueue = "lfx-v2-attendee-auth-api"

// DefaultRefreshInterval is the period between scheduled directory refreshes
const DefaultRefreshInterval = 300 * time.Second
