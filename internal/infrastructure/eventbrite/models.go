// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbrite

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// Pagination is the paging block of every list response
type Pagination struct {
	ObjectCount  int    `json:"object_count"`
	PageNumber   int    `json:"page_number"`
	PageSize     int    `json:"page_size"`
	PageCount    int    `json:"page_count"`
	Continuation string `json:"continuation,omitempty"`
	HasMoreItems bool   `json:"has_more_items"`
}

// ProfileObject is the attendee profile as returned by Eventbrite
type ProfileObject struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// AttendeeObject is a single attendee record
type AttendeeObject struct {
	ID              string        `json:"id"`
	OrderID         string        `json:"order_id"`
	TicketClassName string        `json:"ticket_class_name"`
	Status          string        `json:"status"`
	Changed         string        `json:"changed"`
	Cancelled       bool          `json:"cancelled"`
	Refunded        bool          `json:"refunded"`
	Profile         ProfileObject `json:"profile"`
}

// AttendeeListResponse is one page of GET /events/{id}/attendees/
type AttendeeListResponse struct {
	Pagination Pagination       `json:"pagination"`
	Attendees  []AttendeeObject `json:"attendees"`
}

// listAttendeesParams is encoded into the query string of every page request
type listAttendeesParams struct {
	Status       string `url:"status"`
	ChangedSince string `url:"changed_since,omitempty"`
	Continuation string `url:"continuation,omitempty"`
}

// ToModel converts the record into a domain attendee. Records without an e-mail are rejected.
func (a AttendeeObject) ToModel() (model.Attendee, error) {
	attendee, err := model.NewAttendee(a.Profile.Email, constants.EventbriteStatusAttending)
	if err != nil {
		return model.Attendee{}, err
	}

	attendee.Name = a.Profile.Name
	attendee.TicketID = a.ID
	attendee.OrderID = a.OrderID
	attendee.TicketClass = a.TicketClassName

	if a.Changed != "" {
		if changed, err := time.Parse(time.RFC3339, a.Changed); err == nil {
			attendee.ChangedAt = &changed
		}
	}

	return attendee, nil
}
