// Package client implements the operator side of the protocol: it turns
// console lines into request frames, one TCP connection per command, and
// records every outcome in the client log.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
	"github.com/Shivanand-hulikatti/event-manager/internal/model"
	"github.com/Shivanand-hulikatti/event-manager/internal/protocol"
	"github.com/Shivanand-hulikatti/event-manager/internal/service"
)

// Log lines shared by several commands.
const (
	MsgIllegalCommand = "ERROR: illegal command."
	MsgNotRegistered  = "ERROR: first command must be REGISTER."
)

// DialTimeout bounds connecting to the server.
const DialTimeout = 10 * time.Second

// Session is one operator's conversation with the server. It is not safe
// for concurrent use; commands run strictly one after another.
type Session struct {
	name       string
	addr       string
	log        *appLog.Logger
	dialer     net.Dialer
	registered bool
}

// NewSession creates a session for name against the server at addr.
func NewSession(name, addr string, log *appLog.Logger) *Session {
	if log == nil {
		log = appLog.Discard()
	}
	return &Session{
		name:   name,
		addr:   addr,
		log:    log,
		dialer: net.Dialer{Timeout: DialTimeout},
	}
}

// Registered reports whether the server has accepted this session's REGISTER.
func (s *Session) Registered() bool {
	return s.registered
}

// Execute runs one operator line. done is true once the session has ended,
// either because the name was rejected or because it unregistered. A
// non-nil error is a transport failure and ends the session as well.
func (s *Session) Execute(ctx context.Context, line string) (done bool, err error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		s.note(MsgIllegalCommand)
		return false, nil
	}
	verb, ok := model.ParseVerb(tokens[0])
	if !ok {
		s.note(MsgIllegalCommand)
		return false, nil
	}
	args := tokens[1:]

	if verb == model.VerbRegister {
		if s.registered {
			s.note(MsgIllegalCommand)
			return false, nil
		}
		return s.register(ctx)
	}
	if !s.registered {
		s.note(MsgNotRegistered)
		return false, nil
	}

	switch verb {
	case model.VerbUnregister:
		return s.unregister(ctx)
	case model.VerbCreate:
		return false, s.create(ctx, args)
	case model.VerbGetTop5:
		return false, s.topFive(ctx)
	case model.VerbSendRSVP:
		return false, s.sendRsvp(ctx, args)
	case model.VerbGetRSVPsList:
		return false, s.listRsvps(ctx, args)
	}
	return false, nil
}

func (s *Session) note(text string) {
	_ = s.log.Append(text)
}

func (s *Session) register(ctx context.Context) (bool, error) {
	frame, err := s.roundTrip(ctx, model.VerbRegister)
	if err != nil {
		return true, err
	}
	if protocol.Status(frame) != model.StatusOK {
		s.note("ERROR: the client " + s.name + " was already registered.")
		return true, nil
	}
	s.registered = true
	s.note("Client " + s.name + " was registered successfully.")
	return false, nil
}

func (s *Session) unregister(ctx context.Context) (bool, error) {
	frame, err := s.roundTrip(ctx, model.VerbUnregister)
	if err != nil {
		return true, err
	}
	if protocol.Status(frame) != model.StatusOK {
		s.registered = false
		s.note(MsgNotRegistered)
		return false, nil
	}
	s.registered = false
	s.note("Client " + s.name + " was unregistered successfully.")
	return true, nil
}

func (s *Session) create(ctx context.Context, args []string) error {
	if len(args) < 3 {
		s.note("ERROR: missing arguments in command CREATE.")
		return nil
	}
	title, date, description, err := service.ParseCreateArgs(args)
	if err != nil {
		s.note("ERROR: invalid argument in command CREATE.")
		return nil
	}

	frame, err := s.roundTrip(ctx, model.VerbCreate, title, date, description)
	if err != nil {
		return err
	}
	content := protocol.Content(frame)
	id, convErr := strconv.Atoi(content)
	if convErr != nil {
		s.note("ERROR: failed to create event " + title + ".")
		return nil
	}
	s.note("Event id " + strconv.Itoa(id) + " was created successfully.")
	return nil
}

func (s *Session) topFive(ctx context.Context) error {
	frame, err := s.roundTrip(ctx, model.VerbGetTop5)
	if err != nil {
		return err
	}
	content := protocol.Content(frame)
	if isErrorResponse(content) {
		s.note("ERROR: failed to get the top 5 events.")
		return nil
	}
	s.note(strings.Join(protocol.SplitEvents(content), "") + ".\n")
	return nil
}

// eventIDArg validates the id argument locally. It returns ok=false after
// logging when the command must not be sent.
func (s *Session) eventIDArg(verb model.Verb, args []string) (string, bool) {
	if len(args) == 0 {
		s.note("ERROR: missing arguments in command " + string(verb) + ".")
		return "", false
	}
	if _, err := service.ParseEventID(args[:1]); err != nil {
		s.note("ERROR: given id is not an integer.")
		return "", false
	}
	return args[0], true
}

func (s *Session) sendRsvp(ctx context.Context, args []string) error {
	id, ok := s.eventIDArg(model.VerbSendRSVP, args)
	if !ok {
		return nil
	}
	frame, err := s.roundTrip(ctx, model.VerbSendRSVP, id)
	if err != nil {
		return err
	}

	switch protocol.Status(frame) {
	case model.StatusOK:
		s.note("RSVP to event id " + id + " was received successfully.")
	case model.StatusDuplicate:
		s.note("RSVP to event id " + id + " was already sent.")
	default:
		s.note("ERROR: faild to send RSVP to event id " + id + ": event was not found.")
	}
	return nil
}

func (s *Session) listRsvps(ctx context.Context, args []string) error {
	id, ok := s.eventIDArg(model.VerbGetRSVPsList, args)
	if !ok {
		return nil
	}
	frame, err := s.roundTrip(ctx, model.VerbGetRSVPsList, id)
	if err != nil {
		return err
	}
	content := protocol.Content(frame)
	if isErrorResponse(content) {
		s.note("ERROR: event with given id does not exist.")
		return nil
	}

	names := strings.Fields(content)
	sort.Strings(names)
	s.note("The RSVP's list for event id " + id + " is: " + strings.Join(names, ",") + ".")
	return nil
}

// isErrorResponse reports whether a content-carrying response is the bare
// error status. A lone attendee literally named "e" is indistinguishable.
func isErrorResponse(content string) bool {
	return len(content) == 1 && model.Status(content[0]) == model.StatusError
}

// roundTrip opens a connection, sends one request and reads one response.
func (s *Session) roundTrip(ctx context.Context, verb model.Verb, args ...string) ([]byte, error) {
	req, err := protocol.EncodeRequest(model.Request{ClientName: s.name, Verb: verb, Args: args})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", verb, err)
	}

	conn, err := s.dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		s.note("ERROR\tconnect\t" + err.Error() + ".")
		return nil, fmt.Errorf("connect %s: %w", s.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := protocol.WriteFrame(conn, req); err != nil {
		s.note("ERROR\twrite\t" + err.Error() + ".")
		return nil, err
	}
	resp, err := protocol.ReadFrame(conn)
	if err != nil {
		s.note("ERROR\tread\t" + err.Error() + ".")
		if errors.Is(err, protocol.ErrShortFrame) {
			return nil, fmt.Errorf("%s: server closed the connection: %w", verb, err)
		}
		return nil, err
	}
	return resp, nil
}
