package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSink pushes actions over a persistent websocket instead of REST. Used
// when the bot exposes a message bus rather than HTTP endpoints. Each
// message carries the same identity fields as the REST body plus the
// command name.
type WSSink struct {
	url string
	cfg HTTPConfig
	log *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Sink = (*WSSink)(nil)

type wsCommand struct {
	Command        string     `json:"command"`
	GuildID        string     `json:"guildId"`
	UserID         string     `json:"userId"`
	VoiceChannelID string     `json:"voiceChannelId"`
	Options        botOptions `json:"options"`
}

// NewWSSink dials url and keeps the connection for subsequent sends.
func NewWSSink(url string, cfg HTTPConfig, log *slog.Logger) (*WSSink, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus %s: %w", url, err)
	}
	log.Info("connected to bus", "url", url)
	return &WSSink{url: url, cfg: cfg, log: log, conn: conn}, nil
}

// Send writes the action as one text message. A write failure triggers a
// single redial before the error is reported as retryable; the dispatcher
// owns any further retry.
func (s *WSSink) Send(ctx context.Context, a Action) error {
	msg := wsCommand{
		Command:        a.Command,
		GuildID:        s.cfg.GuildID,
		UserID:         s.cfg.UserID,
		VoiceChannelID: s.cfg.VoiceChannelID,
		Options:        botOptions{Query: a.Query},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return &Error{Op: a.Command, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(data); err == nil {
		return nil
	}

	s.log.Warn("bus write failed, redialing", "url", s.url)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return &Error{Op: a.Command, Retryable: true, Err: fmt.Errorf("redial bus: %w", err)}
	}
	s.conn.Close()
	s.conn = conn

	if err := s.write(data); err != nil {
		return &Error{Op: a.Command, Retryable: true, Err: err}
	}
	return nil
}

func (s *WSSink) write(data []byte) error {
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the bus connection down.
func (s *WSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
