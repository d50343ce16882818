// Package proxy builds HTTP clients that tunnel through a SOCKS5 proxy.
// Used when the music bot lives behind a bastion.
package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// NewSocksClient returns an http.Client whose connections are dialed
// through the SOCKS5 proxy at socksAddr (host:port). Keep-alives follow
// disableKeepAlives so the caller controls connection reuse.
func NewSocksClient(socksAddr string, timeout time.Duration, disableKeepAlives bool) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer for %s: %w", socksAddr, err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
		DisableKeepAlives: disableKeepAlives,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
