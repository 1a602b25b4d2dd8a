package protocol

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-manager/internal/model"
)

func frameOf(t *testing.T, s string) []byte {
	t.Helper()
	frame, err := pad(s)
	require.NoError(t, err)
	return frame
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.Request
		wantErr bool
	}{
		{
			name:  "register",
			input: "Alice REGISTER",
			want:  model.Request{ClientName: "Alice", Verb: model.VerbRegister, Args: []string{}},
		},
		{
			name:  "lowercase verb",
			input: "bob send_rsvp 3",
			want:  model.Request{ClientName: "bob", Verb: model.VerbSendRSVP, Args: []string{"3"}},
		},
		{
			name:  "create keeps description words",
			input: "Alice CREATE Launch 2024-01-01 first event",
			want: model.Request{
				ClientName: "Alice",
				Verb:       model.VerbCreate,
				Args:       []string{"Launch", "2024-01-01", "first", "event"},
			},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "name only", input: "Alice", wantErr: true},
		{name: "unknown verb", input: "Alice DELETE 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest(frameOf(t, tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsProtocolError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRequestUnknownVerbKeepsName(t *testing.T) {
	req, err := DecodeRequest(frameOf(t, "carol FLY"))
	require.Error(t, err)
	assert.Equal(t, "carol", req.ClientName)
}

func TestEncodeRequestRoundTrip(t *testing.T) {
	frame, err := EncodeRequest(model.Request{
		ClientName: "Alice",
		Verb:       model.VerbGetRSVPsList,
		Args:       []string{"7"},
	})
	require.NoError(t, err)
	require.Len(t, frame, FrameSize)
	assert.Equal(t, "Alice GET_RSVPS_LIST 7", Content(frame))
}

func TestEncodeResponseStatusVerbs(t *testing.T) {
	for _, verb := range []model.Verb{model.VerbRegister, model.VerbUnregister, model.VerbSendRSVP} {
		for _, status := range []model.Status{model.StatusOK, model.StatusDuplicate, model.StatusError} {
			frame, err := EncodeResponse(model.Response{Verb: verb, Status: status})
			require.NoError(t, err)
			require.Len(t, frame, FrameSize)
			assert.Equal(t, status, Status(frame), "%s/%s", verb, status)
			assert.Equal(t, 1, len(Content(frame)), "only the status byte is set")
		}
	}
}

func TestEncodeResponseCreate(t *testing.T) {
	frame, err := EncodeResponse(model.Response{Verb: model.VerbCreate, Status: model.StatusOK, EventID: 42})
	require.NoError(t, err)
	assert.Equal(t, "42", Content(frame))
}

func TestEncodeResponseTopFive(t *testing.T) {
	events := []model.Event{
		{ID: 2, Title: "Party", Date: "Friday", Description: "bring snacks"},
		{ID: 1, Title: "Launch", Date: "2024-01-01", Description: "first event"},
	}
	frame, err := EncodeResponse(model.Response{Verb: model.VerbGetTop5, Status: model.StatusOK, Events: events})
	require.NoError(t, err)

	content := Content(frame)
	assert.True(t, strings.HasPrefix(content, TopFiveHeader))
	assert.Equal(t, 1, bytes.Count([]byte(content), []byte{EventDelimiter}))

	blocks := SplitEvents(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, TopFiveHeader+"2\tParty\tFriday\tbring snacks.\n", blocks[0])
	assert.Equal(t, "1\tLaunch\t2024-01-01\tfirst event.\n", blocks[1])
}

func TestEncodeResponseTopFiveEmpty(t *testing.T) {
	frame, err := EncodeResponse(model.Response{Verb: model.VerbGetTop5, Status: model.StatusOK})
	require.NoError(t, err)
	assert.Equal(t, TopFiveHeader, Content(frame))
}

func TestEncodeResponseRSVPList(t *testing.T) {
	frame, err := EncodeResponse(model.Response{
		Verb:      model.VerbGetRSVPsList,
		Status:    model.StatusOK,
		Attendees: []string{"alice", "bob", "zed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice bob zed", Content(frame))
}

func TestEncodeResponseErrors(t *testing.T) {
	for _, verb := range []model.Verb{"", model.VerbCreate, model.VerbGetTop5, model.VerbGetRSVPsList} {
		frame, err := EncodeResponse(model.Response{Verb: verb, Status: model.StatusError})
		require.NoError(t, err)
		assert.Equal(t, "e", Content(frame))
	}
}

func TestEncodeResponseOverflow(t *testing.T) {
	names := make([]string, FrameSize/2+2)
	for i := range names {
		names[i] = "x"
	}
	_, err := EncodeResponse(model.Response{Verb: model.VerbGetRSVPsList, Status: model.StatusOK, Attendees: names})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameOverflow))
}

func TestReadFrameShort(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte("Alice REGISTER")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortFrame))
}

func TestReadWriteFrameOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	want := frameOf(t, "Alice GET_TOP_5")
	errCh := make(chan error, 1)
	go func() { errCh <- WriteFrame(a, want) }()

	got, err := ReadFrame(b)
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.Equal(t, want, got)
}

func TestWriteFrameRejectsWrongSize(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, []byte("short"))
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}
