// Package model defines the core domain types for the event scheduling service.
package model

import "strings"

// Client is a registered participant. RSVPEventID is 0 when the client holds
// no RSVP, otherwise the id of the single event it is attending.
type Client struct {
	Name        string `json:"name"`
	RSVPEventID int    `json:"rsvp_event_id"`
}

// HasRSVP reports whether the client currently holds an RSVP.
func (c *Client) HasRSVP() bool {
	return c.RSVPEventID != 0
}

// Event is a scheduled event. Attendees holds client names in RSVP order.
type Event struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
}

// Snapshot returns a copy of the event that shares no memory with e.
func (e *Event) Snapshot() Event {
	out := *e
	out.Attendees = append([]string(nil), e.Attendees...)
	return out
}

// HasAttendee reports whether name already appears in the attendee list.
func (e *Event) HasAttendee(name string) bool {
	for _, a := range e.Attendees {
		if a == name {
			return true
		}
	}
	return false
}

// Field limits enforced on CREATE.
const (
	MaxTitleLen       = 30
	MaxDateLen        = 30
	MaxDescriptionLen = 256
)

// Verb identifies a protocol command.
type Verb string

const (
	VerbRegister     Verb = "REGISTER"
	VerbUnregister   Verb = "UNREGISTER"
	VerbCreate       Verb = "CREATE"
	VerbGetTop5      Verb = "GET_TOP_5"
	VerbSendRSVP     Verb = "SEND_RSVP"
	VerbGetRSVPsList Verb = "GET_RSVPS_LIST"
)

// ParseVerb matches s case-insensitively against the known verbs.
func ParseVerb(s string) (Verb, bool) {
	switch v := Verb(strings.ToUpper(s)); v {
	case VerbRegister, VerbUnregister, VerbCreate, VerbGetTop5, VerbSendRSVP, VerbGetRSVPsList:
		return v, true
	}
	return "", false
}

// Status is the single-byte outcome written at response offset 0.
type Status byte

const (
	StatusNone      Status = 0
	StatusOK        Status = 'k'
	StatusDuplicate Status = 'w'
	StatusError     Status = 'e'
)

// String returns a label suitable for logs and metrics.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDuplicate:
		return "duplicate"
	case StatusError:
		return "error"
	default:
		return "none"
	}
}

// Request is a decoded request frame.
type Request struct {
	ClientName string
	Verb       Verb
	Args       []string
}

// Response is the typed result of dispatching a Request. Exactly one of the
// payload fields is meaningful, depending on the verb.
type Response struct {
	Verb      Verb
	Status    Status
	EventID   int
	Events    []Event
	Attendees []string
}
