// Package server accepts TCP connections, runs one worker goroutine per
// connection and coordinates graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
	"github.com/Shivanand-hulikatti/event-manager/internal/metrics"
)

// ErrServerClosed is returned by Serve when Shutdown was called first.
var ErrServerClosed = errors.New("server closed")

// ConnHandler serves a single connection and owns closing it.
type ConnHandler interface {
	ServeConn(conn net.Conn) error
}

// Server is the listener half of the service. Workers are supervised with a
// WaitGroup so that Shutdown can wait for every admitted connection.
type Server struct {
	handler ConnHandler
	isFatal func(error) bool
	log     *appLog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	listener net.Listener
	closing  bool
	fatalErr error

	workers sync.WaitGroup
	live    atomic.Int64
}

// New constructs a Server. isFatal decides which worker errors stop the
// server; nil treats every worker error as fatal.
func New(h ConnHandler, isFatal func(error) bool, log *appLog.Logger, m *metrics.Metrics) *Server {
	if isFatal == nil {
		isFatal = func(err error) bool { return err != nil }
	}
	if log == nil {
		log = appLog.Discard()
	}
	return &Server{handler: h, isFatal: isFatal, log: log, metrics: m}
}

// Serve accepts connections on ln until Shutdown is called or a fatal error
// occurs. It returns nil after a graceful Shutdown and the first fatal error
// otherwise. Serve does not wait for workers; Shutdown does.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.Closing() {
				return s.Err()
			}
			s.metrics.ConnectionError(metrics.StageAccept)
			s.fail(fmt.Errorf("accept: %w", err))
			return s.Err()
		}

		if !s.admit() {
			conn.Close()
			continue
		}
		s.metrics.ConnectionAccepted()
		go s.work(conn)
	}
}

// admit registers a new worker unless shutdown has begun. Holding mu here and
// in beginClose keeps WaitGroup.Add ordered before Wait.
func (s *Server) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.workers.Add(1)
	s.live.Add(1)
	s.metrics.WorkerStarted()
	return true
}

func (s *Server) work(conn net.Conn) {
	defer func() {
		s.live.Add(-1)
		s.metrics.WorkerDone()
		s.workers.Done()
	}()

	if err := s.handler.ServeConn(conn); s.isFatal(err) {
		s.fail(err)
	}
}

// fail records the first fatal error and stops accepting.
func (s *Server) fail(err error) {
	s.mu.Lock()
	first := s.fatalErr == nil
	if first {
		s.fatalErr = err
	}
	s.mu.Unlock()

	if first {
		s.log.Error("fatal i/o error, shutting down", err)
	}
	s.beginClose()
}

func (s *Server) beginClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return
	}
	s.closing = true
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Error("close listener", err)
		}
	}
}

// Shutdown stops admitting connections and blocks until every admitted
// worker has finished its exchange or ctx is done. Workers are never
// interrupted.
func (s *Server) Shutdown(ctx context.Context) error {
	s.beginClose()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d worker(s): %w", s.LiveWorkers(), ctx.Err())
	}
}

// Closing reports whether shutdown has begun.
func (s *Server) Closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Err returns the fatal error that stopped the server, if any.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatalErr
}

// LiveWorkers returns the number of running connection workers.
func (s *Server) LiveWorkers() int64 {
	return s.live.Load()
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
