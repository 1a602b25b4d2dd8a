// Package handler runs one request/response exchange per TCP connection and
// translates between wire frames and the service layer.
package handler

import (
	"errors"
	"net"

	"github.com/google/uuid"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
	"github.com/Shivanand-hulikatti/event-manager/internal/metrics"
	"github.com/Shivanand-hulikatti/event-manager/internal/model"
	"github.com/Shivanand-hulikatti/event-manager/internal/protocol"
	"github.com/Shivanand-hulikatti/event-manager/internal/repository"
	"github.com/Shivanand-hulikatti/event-manager/internal/service"
)

// ConnHandler serves a single frame exchange on each connection it is given.
type ConnHandler struct {
	svc     *service.EventService
	log     *appLog.Logger
	metrics *metrics.Metrics
}

// NewConnHandler constructs a ConnHandler. m may be nil.
func NewConnHandler(svc *service.EventService, log *appLog.Logger, m *metrics.Metrics) *ConnHandler {
	if log == nil {
		log = appLog.Discard()
	}
	return &ConnHandler{svc: svc, log: log, metrics: m}
}

// IsFatal reports whether err returned by ServeConn must stop the server.
// A peer that hangs up before sending a whole frame only loses its own
// connection.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, protocol.ErrShortFrame)
}

// ServeConn reads one request frame, dispatches it, writes one response frame
// and closes conn. Malformed requests and domain failures are answered with
// the error status and are not returned as errors.
func (h *ConnHandler) ServeConn(conn net.Conn) error {
	defer conn.Close()

	connID := uuid.NewString()
	remote := remoteAddr(conn)

	frame, err := protocol.ReadFrame(conn)
	if err != nil {
		h.metrics.ConnectionError(metrics.StageRead)
		h.log.Error("read request failed", err, "conn", connID, "remote", remote)
		return err
	}

	resp := h.dispatch(connID, frame)
	h.metrics.Command(resp.Verb, resp.Status)

	out, err := protocol.EncodeResponse(resp)
	if err != nil {
		h.metrics.ConnectionError(metrics.StageEncode)
		h.log.Error("encode response failed", err, "conn", connID, "verb", resp.Verb)
		out, _ = protocol.EncodeResponse(model.Response{Status: model.StatusError})
	}

	if err := protocol.WriteFrame(conn, out); err != nil {
		h.metrics.ConnectionError(metrics.StageWrite)
		h.log.Error("write response failed", err, "conn", connID, "remote", remote)
		return err
	}

	h.log.Debug("connection served", "conn", connID, "verb", resp.Verb, "status", resp.Status)
	return nil
}

func (h *ConnHandler) dispatch(connID string, frame []byte) model.Response {
	req, err := protocol.DecodeRequest(frame)
	if err != nil {
		h.metrics.ConnectionError(metrics.StageDecode)
		h.log.Error("bad request", err, "conn", connID, "client", req.ClientName)
		return model.Response{Status: model.StatusError}
	}

	resp, err := h.svc.Dispatch(req)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAlreadyRsvpd):
		h.log.Info("duplicate request", "conn", connID, "client", req.ClientName, "verb", req.Verb, "reason", err)
	default:
		h.log.Error("request rejected", err, "conn", connID, "client", req.ClientName, "verb", req.Verb)
	}
	return resp
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
