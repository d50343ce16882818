// Package ipc exposes a unix-socket control surface for the daemon. The
// ctl binary uses it to force a trigger without saying the wake phrase and
// to query the pipeline state.
package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
)

// DefaultSocketPath is used when no socket is configured.
const DefaultSocketPath = "/tmp/jarvis.sock"

// ControlMessage is one command from the ctl binary.
type ControlMessage struct {
	// Cmd is "trigger" or "status".
	Cmd string `json:"cmd"`
}

// Reply is the daemon's answer.
type Reply struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"`
	Err   string `json:"err,omitempty"`
}

// Handler answers one control message.
type Handler func(ControlMessage) Reply

// Server accepts control connections on a unix socket.
type Server struct {
	ln  net.Listener
	log *slog.Logger
}

// Listen binds the socket (removing a stale one first) and serves each
// connection on its own goroutine.
func Listen(path string, handler Handler, log *slog.Logger) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	s := &Server{ln: ln, log: log}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handleConn(conn, handler)
		}
	}()

	log.Info("control socket ready", "path", path)
	return s, nil
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.log.Warn("bad control message", "err", err)
		return
	}

	reply := handler(msg)
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		s.log.Warn("control reply failed", "err", err)
	}
}

// Send connects to the daemon socket, sends cmd, and returns the reply.
func Send(path, cmd string) (Reply, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd}); err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}
