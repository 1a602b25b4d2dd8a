// Package protocol implements the fixed-size frame format spoken between
// emclient and emserver. Every request and every response is exactly
// FrameSize bytes, NUL padded; one frame travels in each direction per TCP
// connection.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/event-manager/internal/model"
)

const (
	// FrameSize is the size of every request and response frame.
	FrameSize = 99999

	// EventDelimiter separates event blocks in a GET_TOP_5 response.
	EventDelimiter byte = 167

	// Separator splits request tokens.
	Separator = " "

	// TopFiveHeader opens every GET_TOP_5 response.
	TopFiveHeader = "Top 5 newest events are:\n"
)

// ErrShortFrame is returned when the peer stops sending before a whole frame
// has arrived.
var ErrShortFrame = errors.New("short frame")

// ErrFrameOverflow is returned when encoded content does not fit in a frame.
var ErrFrameOverflow = errors.New("content exceeds frame size")

// Error describes a malformed request.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "protocol: " + e.Reason
}

// Errorf builds a *Error.
func Errorf(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// IsProtocolError reports whether err is, or wraps, a *Error.
func IsProtocolError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// Content returns the frame's text up to the first NUL byte.
func Content(frame []byte) string {
	if i := bytes.IndexByte(frame, 0); i >= 0 {
		frame = frame[:i]
	}
	return string(frame)
}

// DecodeRequest parses "<name> <VERB> [args...]". When the verb is unknown the
// returned Request still carries the client name so the failure can be logged.
func DecodeRequest(frame []byte) (model.Request, error) {
	tokens := strings.Fields(Content(frame))
	if len(tokens) == 0 {
		return model.Request{}, Errorf("empty request")
	}
	req := model.Request{ClientName: tokens[0]}
	if len(tokens) < 2 {
		return req, Errorf("missing command from %q", req.ClientName)
	}
	verb, ok := model.ParseVerb(tokens[1])
	if !ok {
		return req, Errorf("unknown command %q", tokens[1])
	}
	req.Verb = verb
	req.Args = tokens[2:]
	return req, nil
}

// EncodeRequest renders req into a request frame.
func EncodeRequest(req model.Request) ([]byte, error) {
	parts := append([]string{req.ClientName, string(req.Verb)}, req.Args...)
	return pad(strings.Join(parts, Separator))
}

// EncodeResponse renders resp into a response frame using the layout of its
// verb. Failed outcomes always encode as the error status byte.
func EncodeResponse(resp model.Response) ([]byte, error) {
	if resp.Status == model.StatusError || resp.Verb == "" {
		return statusFrame(model.StatusError), nil
	}

	switch resp.Verb {
	case model.VerbRegister, model.VerbUnregister, model.VerbSendRSVP:
		return statusFrame(resp.Status), nil
	case model.VerbCreate:
		return pad(strconv.Itoa(resp.EventID))
	case model.VerbGetTop5:
		return pad(FormatTopFive(resp.Events))
	case model.VerbGetRSVPsList:
		return pad(strings.Join(resp.Attendees, Separator))
	default:
		return nil, fmt.Errorf("encode response: unsupported verb %q", resp.Verb)
	}
}

// FormatTopFive renders event blocks separated by EventDelimiter. With no
// events only the header is produced.
func FormatTopFive(events []model.Event) string {
	var b strings.Builder
	b.WriteString(TopFiveHeader)
	for i, e := range events {
		if i > 0 {
			b.WriteByte(EventDelimiter)
		}
		fmt.Fprintf(&b, "%d\t%s\t%s\t%s.\n", e.ID, e.Title, e.Date, e.Description)
	}
	return b.String()
}

// SplitEvents undoes FormatTopFive's delimiting.
func SplitEvents(content string) []string {
	return strings.Split(content, string([]byte{EventDelimiter}))
}

// Status returns the status byte at offset 0 of a response frame.
func Status(frame []byte) model.Status {
	if len(frame) == 0 {
		return model.StatusNone
	}
	return model.Status(frame[0])
}

func statusFrame(s model.Status) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = byte(s)
	return frame
}

func pad(content string) ([]byte, error) {
	if len(content) > FrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameOverflow, len(content))
	}
	frame := make([]byte, FrameSize)
	copy(frame, content)
	return frame, nil
}

// ReadFrame blocks until a whole frame has been read from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	frame := make([]byte, FrameSize)
	n, err := io.ReadFull(r, frame)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortFrame, n, FrameSize)
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame, nil
}

// WriteFrame blocks until the whole frame has been written to w.
func WriteFrame(w io.Writer, frame []byte) error {
	if len(frame) != FrameSize {
		return fmt.Errorf("write frame: frame is %d bytes, want %d", len(frame), FrameSize)
	}
	for written := 0; written < len(frame); {
		n, err := w.Write(frame[written:])
		if err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("write frame: %w", io.ErrShortWrite)
		}
		written += n
	}
	return nil
}
