package http

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/httper/httper/packages/core/parser"
)

type transportKind int

const (
	// kindHTTP1 never negotiates HTTP/2.
	kindHTTP1 transportKind = iota
	// kindHTTP2 negotiates HTTP/2 over TLS through ALPN.
	kindHTTP2
	// kindH2C speaks HTTP/2 over cleartext with prior knowledge.
	kindH2C
)

func (k transportKind) String() string {
	switch k {
	case kindHTTP2:
		return "h2"
	case kindH2C:
		return "h2c"
	default:
		return "http/1.1"
	}
}

// kindFor maps a requested protocol version onto a transport. Versions the
// client cannot speak are downgraded with a warning.
func (c *Client) kindFor(v parser.Version, scheme string) transportKind {
	switch v {
	case parser.HTTP11:
		return kindHTTP1
	case parser.HTTP10:
		// net/http always writes HTTP/1.1 on the request line.
		c.warnFallback(v, kindHTTP1)
		return kindHTTP1
	case parser.HTTP2:
		if scheme == "https" {
			return kindHTTP2
		}
		return kindH2C
	default:
		fallback := kindHTTP1
		if scheme == "https" {
			fallback = kindHTTP2
		}
		c.warnFallback(v, fallback)
		return fallback
	}
}

func (c *Client) warnFallback(v parser.Version, kind transportKind) {
	c.logger.Warn("protocol version not supported, falling back",
		"requested", v.String(),
		"transport", kind.String())
}

func (c *Client) newTransport(kind transportKind) (http.RoundTripper, error) {
	if kind == kindH2C {
		return &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}, nil
	}

	proxy, err := c.proxy()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy:               proxy,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		TLSClientConfig:     c.tlsConfig(),
	}

	switch kind {
	case kindHTTP2:
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, err
		}
	default:
		// A non-nil empty map disables the built-in HTTP/2 upgrade.
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	return transport, nil
}
