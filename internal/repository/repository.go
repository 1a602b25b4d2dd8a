// Package repository holds the in-memory registries of clients and events.
// All shared state of the server lives here and is only reachable through
// the Store's methods.
package repository

import (
	"errors"
	"sort"
	"sync"

	"golang.org/x/text/cases"

	"github.com/Shivanand-hulikatti/event-manager/internal/model"
)

// ErrClientExists is returned when a case-insensitively equal name is already registered.
var ErrClientExists = errors.New("client already registered")

// ErrClientNotFound is returned when the named client is not registered.
var ErrClientNotFound = errors.New("client not registered")

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errors.New("event not found")

// ErrAlreadyRsvpd is returned when the client is already on the event's attendee list.
var ErrAlreadyRsvpd = errors.New("client already RSVP'd to this event")

// ErrRsvpConflict is returned when the client already holds an RSVP to a different event.
var ErrRsvpConflict = errors.New("client already RSVP'd to another event")

// TopLimit is the number of events returned by TopFive.
const TopLimit = 5

// Store owns the client and event registries.
//
// Lock order: clientsMu before eventsMu. idMu is never held together with
// either of them.
type Store struct {
	clientsMu sync.Mutex
	clients   map[string]*model.Client // keyed by folded name

	eventsMu sync.RWMutex
	events   []*model.Event // ascending id
	byID     map[int]*model.Event

	idMu   sync.Mutex
	nextID int
}

// NewStore constructs an empty Store. The first event id is 1.
func NewStore() *Store {
	return &Store{
		clients: make(map[string]*model.Client),
		byID:    make(map[int]*model.Event),
		nextID:  1,
	}
}

func nameKey(name string) string {
	return cases.Fold().String(name)
}

// Register adds a client with no RSVP.
func (s *Store) Register(name string) error {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	key := nameKey(name)
	if _, ok := s.clients[key]; ok {
		return ErrClientExists
	}
	s.clients[key] = &model.Client{Name: name}
	return nil
}

// Unregister removes the client, first taking it off the attendee list of
// the event it RSVP'd to.
func (s *Store) Unregister(name string) error {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	key := nameKey(name)
	c, ok := s.clients[key]
	if !ok {
		return ErrClientNotFound
	}

	if c.HasRSVP() {
		s.eventsMu.Lock()
		if e, ok := s.byID[c.RSVPEventID]; ok {
			e.Attendees = removeName(e.Attendees, c.Name)
		}
		s.eventsMu.Unlock()
	}

	delete(s.clients, key)
	return nil
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}

// IsRegistered reports whether a client with a case-insensitively equal name exists.
func (s *Store) IsRegistered(name string) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	_, ok := s.clients[nameKey(name)]
	return ok
}

// Client returns a copy of the registered client.
func (s *Store) Client(name string) (model.Client, error) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	c, ok := s.clients[nameKey(name)]
	if !ok {
		return model.Client{}, ErrClientNotFound
	}
	return *c, nil
}

func (s *Store) allocateID() int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// CreateEvent stores a new event and returns its id.
func (s *Store) CreateEvent(title, date, description string) int {
	e := &model.Event{
		ID:          s.allocateID(),
		Title:       title,
		Date:        date,
		Description: description,
		Attendees:   []string{},
	}

	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	// A concurrent creator may have taken a lower id and not yet inserted it,
	// so walk back from the tail to keep events sorted by id.
	i := len(s.events)
	for i > 0 && s.events[i-1].ID > e.ID {
		i--
	}
	s.events = append(s.events, nil)
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = e
	s.byID[e.ID] = e

	return e.ID
}

// TopFive returns snapshots of up to TopLimit most recent events, newest first.
func (s *Store) TopFive() []model.Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	out := make([]model.Event, 0, TopLimit)
	for i := len(s.events) - 1; i >= 0 && len(out) < TopLimit; i-- {
		out = append(out, s.events[i].Snapshot())
	}
	return out
}

// AddRsvp appends the client to the event's attendee list.
func (s *Store) AddRsvp(name string, eventID int) error {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	c, ok := s.clients[nameKey(name)]
	if !ok {
		return ErrClientNotFound
	}

	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	e, ok := s.byID[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if e.HasAttendee(c.Name) {
		return ErrAlreadyRsvpd
	}
	if c.HasRSVP() {
		return ErrRsvpConflict
	}

	e.Attendees = append(e.Attendees, c.Name)
	c.RSVPEventID = eventID
	return nil
}

// ListRsvp returns the event's attendee names in lexicographic order.
func (s *Store) ListRsvp(eventID int) ([]string, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	e, ok := s.byID[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	names := append([]string(nil), e.Attendees...)
	sort.Strings(names)
	return names, nil
}

// Stats is a point-in-time size summary.
type Stats struct {
	Clients int `json:"clients"`
	Events  int `json:"events"`
}

// Stats returns the current registry sizes.
func (s *Store) Stats() Stats {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return Stats{Clients: len(s.clients), Events: len(s.events)}
}

// Release drops every client and event. The id counter is not reset, so ids
// are never reused by the same Store.
func (s *Store) Release() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	s.clients = make(map[string]*model.Client)
	s.events = nil
	s.byID = make(map[int]*model.Event)
}
