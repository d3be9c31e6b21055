// Package httpclient builds the HTTP client taxa uses to read NCBI index
// pages. Requests to loopback, private and other special-use addresses are
// refused unless explicitly allowed, both before dialing and after DNS
// resolution, so a redirect or a rebinding DNS answer cannot reach them.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/taxa/errors"
)

// DefaultUserAgent identifies taxa to NCBI
const DefaultUserAgent = "taxa (+https://github.com/teranos/taxa)"

// Client is an http.Client restricted to public http(s) hosts
type Client struct {
	*http.Client
	userAgent    string
	allowPrivate bool
	maxRedirects int
}

// Option configures a Client
type Option func(*Client)

// WithPrivateNetworks allows loopback and private addresses, for local
// mirrors and tests.
func WithPrivateNetworks(allow bool) Option {
	return func(c *Client) { c.allowPrivate = allow }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRedirects overrides the redirect limit (default 10)
func WithMaxRedirects(n int) Option {
	return func(c *Client) { c.maxRedirects = n }
}

// New creates a client with the given overall request timeout
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		Client:       &http.Client{Timeout: timeout},
		userAgent:    DefaultUserAgent,
		maxRedirects: 10,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= c.maxRedirects {
			return errors.Newf("stopped after %d redirects", c.maxRedirects)
		}
		if err := c.check(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	c.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if c.allowPrivate {
				return dialer.DialContext(ctx, network, addr)
			}
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}
			ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}
			for _, ip := range ips {
				if isRestricted(ip) {
					return nil, errors.Newf("address %s of %s is not public", ip, host)
				}
			}
			if len(ips) == 0 {
				return nil, errors.Newf("no addresses for host %q", host)
			}
			// Dial the address that was checked, not the name
			return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].String(), port))
		},
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return c
}

// check rejects URLs the client must not fetch
func (c *Client) check(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return errors.Newf("scheme %q not allowed (http, https)", u.Scheme)
	}
	if u.User != nil {
		return errors.New("URL must not carry credentials")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("URL missing hostname")
	}
	if c.allowPrivate {
		return nil
	}
	if isLocalhost(host) {
		return errors.Newf("host %q is local", host)
	}
	if ip, err := netip.ParseAddr(host); err == nil && isRestricted(ip) {
		return errors.Newf("address %s is not public", ip)
	}
	return nil
}

// Do sends req after checking its URL and setting the User-Agent
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.check(req.URL); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "request to %s blocked", req.URL.Redacted()),
			"index pages must be public http(s) URLs",
		)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.Client.Do(req)
}

// isRestricted reports loopback, private, link-local, multicast,
// unspecified and documentation addresses.
func isRestricted(ip netip.Addr) bool {
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() ||
		ip.IsInterfaceLocalMulticast() {
		return true
	}
	for _, p := range specialPrefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

var specialPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("fec0::/10"), // site-local
}

func isLocalhost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == "localhost" || host == "localhost.localdomain" || strings.HasSuffix(host, ".localhost")
}
