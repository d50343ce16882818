package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jarvis/internal/proxy"
)

// HTTPConfig describes where and as whom requests are sent.
type HTTPConfig struct {
	// BaseURL of the music bot, e.g. "http://localhost:2000". Commands are
	// POSTed to BaseURL/<command>.
	BaseURL string

	// GuildID, UserID and VoiceChannelID identify the session the bot
	// should act in. Sent with every request.
	GuildID        string
	UserID         string
	VoiceChannelID string

	// ReuseConnections keeps the underlying TCP connection alive between
	// commands. Off means a fresh connection per request.
	ReuseConnections bool

	// SocksProxy, when set, routes requests through a SOCKS5 proxy at
	// host:port.
	SocksProxy string

	// Timeout per request. Zero means 10 seconds.
	Timeout time.Duration
}

// HTTPSink POSTs actions to the music bot's REST API.
type HTTPSink struct {
	cfg    HTTPConfig
	client *http.Client
	log    *slog.Logger
}

var _ Sink = (*HTTPSink)(nil)

type botRequest struct {
	GuildID        string     `json:"guildId"`
	UserID         string     `json:"userId"`
	VoiceChannelID string     `json:"voiceChannelId"`
	Options        botOptions `json:"options"`
}

type botOptions struct {
	Query string `json:"query,omitempty"`
}

// NewHTTPSink builds a sink for cfg. The client honors cfg.SocksProxy and
// cfg.ReuseConnections.
func NewHTTPSink(cfg HTTPConfig, log *slog.Logger) (*HTTPSink, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var client *http.Client
	if cfg.SocksProxy != "" {
		c, err := proxy.NewSocksClient(cfg.SocksProxy, cfg.Timeout, !cfg.ReuseConnections)
		if err != nil {
			return nil, err
		}
		client = c
	} else {
		client = &http.Client{
			Transport: &http.Transport{DisableKeepAlives: !cfg.ReuseConnections},
			Timeout:   cfg.Timeout,
		}
	}

	return &HTTPSink{cfg: cfg, client: client, log: log}, nil
}

// Send POSTs the action as JSON and classifies the response. Transport
// failures, timeouts, 408, 429 and 5xx are retryable; other non-2xx
// statuses are permanent.
func (s *HTTPSink) Send(ctx context.Context, a Action) error {
	body, err := json.Marshal(botRequest{
		GuildID:        s.cfg.GuildID,
		UserID:         s.cfg.UserID,
		VoiceChannelID: s.cfg.VoiceChannelID,
		Options:        botOptions{Query: a.Query},
	})
	if err != nil {
		return &Error{Op: a.Command, Err: err}
	}

	url := s.cfg.BaseURL + "/" + a.Command
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Error{Op: a.Command, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	s.log.Debug("sending command", "url", url, "query", a.Query)
	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Op: a.Command, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	err = fmt.Errorf("%s returned %s: %s", url, resp.Status, strings.TrimSpace(string(snippet)))
	return &Error{Op: a.Command, Retryable: retryableStatus(resp.StatusCode), Err: err}
}

func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	}
	return false
}
