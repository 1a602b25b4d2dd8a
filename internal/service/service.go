// Package service implements command validation and orchestration between
// the connection handler and the repository layer.
package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
	"github.com/Shivanand-hulikatti/event-manager/internal/model"
	"github.com/Shivanand-hulikatti/event-manager/internal/protocol"
	"github.com/Shivanand-hulikatti/event-manager/internal/repository"
)

// EventService turns decoded requests into Store operations.
type EventService struct {
	store *repository.Store
	log   *appLog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store *repository.Store, log *appLog.Logger) *EventService {
	if log == nil {
		log = appLog.Discard()
	}
	return &EventService{store: store, log: log}
}

// Dispatch validates req and applies it to the store. The returned Response
// is always encodable; a non-nil error explains an error or duplicate status.
func (s *EventService) Dispatch(req model.Request) (model.Response, error) {
	resp := model.Response{Verb: req.Verb, Status: model.StatusOK}

	var err error
	switch req.Verb {
	case model.VerbRegister:
		err = s.register(req)
	case model.VerbUnregister:
		err = s.unregister(req)
	case model.VerbCreate:
		resp.EventID, err = s.createEvent(req)
	case model.VerbGetTop5:
		resp.Events, err = s.topFive(req)
	case model.VerbSendRSVP:
		err = s.sendRsvp(req)
	case model.VerbGetRSVPsList:
		resp.Attendees, err = s.listRsvps(req)
	default:
		err = protocol.Errorf("unknown command %q", req.Verb)
	}

	if err != nil {
		resp.Status = StatusFor(err)
	}
	return resp, err
}

// StatusFor maps a dispatch error onto the wire status byte.
func StatusFor(err error) model.Status {
	switch {
	case err == nil:
		return model.StatusOK
	case errors.Is(err, repository.ErrAlreadyRsvpd):
		return model.StatusDuplicate
	default:
		return model.StatusError
	}
}

func expectArgs(req model.Request, n int) error {
	if len(req.Args) != n {
		return protocol.Errorf("%s takes %d argument(s), got %d", req.Verb, n, len(req.Args))
	}
	return nil
}

func (s *EventService) requireRegistered(name string) error {
	if !s.store.IsRegistered(name) {
		return fmt.Errorf("%s: %w", name, repository.ErrClientNotFound)
	}
	return nil
}

func (s *EventService) register(req model.Request) error {
	if err := expectArgs(req, 0); err != nil {
		return err
	}
	if err := s.store.Register(req.ClientName); err != nil {
		return fmt.Errorf("register %s: %w", req.ClientName, err)
	}
	s.log.Info("client registered", "client", req.ClientName)
	return nil
}

func (s *EventService) unregister(req model.Request) error {
	if err := expectArgs(req, 0); err != nil {
		return err
	}
	if err := s.store.Unregister(req.ClientName); err != nil {
		return fmt.Errorf("unregister %s: %w", req.ClientName, err)
	}
	s.log.Info("client unregistered", "client", req.ClientName)
	return nil
}

// ParseCreateArgs splits CREATE arguments into title, date and description
// and enforces the field limits.
func ParseCreateArgs(args []string) (title, date, description string, err error) {
	if len(args) < 3 {
		return "", "", "", protocol.Errorf("CREATE needs a title, a date and a description")
	}
	title, date = args[0], args[1]
	description = strings.Join(args[2:], protocol.Separator)

	switch {
	case len(title) > model.MaxTitleLen:
		return "", "", "", protocol.Errorf("title exceeds %d characters", model.MaxTitleLen)
	case len(date) > model.MaxDateLen:
		return "", "", "", protocol.Errorf("date exceeds %d characters", model.MaxDateLen)
	case len(description) > model.MaxDescriptionLen:
		return "", "", "", protocol.Errorf("description exceeds %d characters", model.MaxDescriptionLen)
	}
	return title, date, description, nil
}

// ParseEventID parses the single event id argument of SEND_RSVP and
// GET_RSVPS_LIST.
func ParseEventID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, protocol.Errorf("expected one event id, got %d argument(s)", len(args))
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, protocol.Errorf("event id %q is not an integer", args[0])
	}
	return id, nil
}

func (s *EventService) createEvent(req model.Request) (int, error) {
	title, date, description, err := ParseCreateArgs(req.Args)
	if err != nil {
		return 0, err
	}
	if err := s.requireRegistered(req.ClientName); err != nil {
		return 0, err
	}
	id := s.store.CreateEvent(title, date, description)
	s.log.Info("event created", "client", req.ClientName, "id", id, "title", title)
	return id, nil
}

func (s *EventService) topFive(req model.Request) ([]model.Event, error) {
	if err := expectArgs(req, 0); err != nil {
		return nil, err
	}
	if err := s.requireRegistered(req.ClientName); err != nil {
		return nil, err
	}
	events := s.store.TopFive()
	s.log.Info("top 5 requested", "client", req.ClientName, "returned", len(events))
	return events, nil
}

func (s *EventService) sendRsvp(req model.Request) error {
	id, err := ParseEventID(req.Args)
	if err != nil {
		return err
	}
	if err := s.store.AddRsvp(req.ClientName, id); err != nil {
		return fmt.Errorf("rsvp %s to event %d: %w", req.ClientName, id, err)
	}
	s.log.Info("rsvp received", "client", req.ClientName, "event", id)
	return nil
}

func (s *EventService) listRsvps(req model.Request) ([]string, error) {
	id, err := ParseEventID(req.Args)
	if err != nil {
		return nil, err
	}
	if err := s.requireRegistered(req.ClientName); err != nil {
		return nil, err
	}
	names, err := s.store.ListRsvp(id)
	if err != nil {
		return nil, fmt.Errorf("rsvp list for event %d: %w", id, err)
	}
	s.log.Info("rsvp list requested", "client", req.ClientName, "event", id, "attendees", len(names))
	return names, nil
}
