// Package replayguard installs a process-wide network block for
// offline replays: outbound HTTP/HTTPS calls and DNS resolution to
// non-loopback hosts fail fast with a deterministic error instead of
// silently reaching a live provider. Loopback and allowlisted hosts
// pass through untouched.
package replayguard

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/trajectly/trajectly/internal/specconfig"
)

// Guard holds the network-block state for one replay. It is safe for
// concurrent use: the agent under replay and the core's own
// instrumentation may issue calls from different goroutines.
type Guard struct {
	mode         specconfig.ReplayMode
	allowDomains map[string]bool

	mu              sync.Mutex
	installed       bool
	prevTransport   http.RoundTripper
	prevResolver    *net.Resolver
	blockedAttempts []string
}

// New builds a Guard for the given replay mode. allowDomains lists
// exact-match hostnames permitted even when mode is offline.
func New(mode specconfig.ReplayMode, allowDomains []string) *Guard {
	set := make(map[string]bool, len(allowDomains))
	for _, d := range allowDomains {
		set[d] = true
	}
	return &Guard{mode: mode, allowDomains: set}
}

// Install swaps in a blocking transport and resolver for the duration
// of the replay. A no-op when mode is not offline. Install is not
// reentrant: calling it twice without an intervening Uninstall panics,
// since that would leak the first guard's saved previous state.
func (g *Guard) Install() error {
	if g.mode != specconfig.ReplayOffline {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.installed {
		panic("replayguard: Install called while already installed")
	}

	g.prevTransport = http.DefaultTransport
	g.prevResolver = net.DefaultResolver

	http.DefaultTransport = &guardedTransport{guard: g, inner: g.prevTransport}
	net.DefaultResolver = &net.Resolver{PreferGo: true, Dial: g.dialResolver}
	g.installed = true
	return nil
}

// Uninstall restores the previous transport and resolver. Safe to
// call when Install was a no-op or was never called.
func (g *Guard) Uninstall() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.installed {
		return
	}
	http.DefaultTransport = g.prevTransport
	net.DefaultResolver = g.prevResolver
	g.installed = false
}

// BlockedAttempts returns the hosts a blocked call attempted to
// reach, in the order they were observed. The orchestrator's report
// metadata does not include them.
func (g *Guard) BlockedAttempts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.blockedAttempts))
	copy(out, g.blockedAttempts)
	return out
}

// AllowedDomains returns the configured allowlist.
func (g *Guard) AllowedDomains() []string {
	out := make([]string, 0, len(g.allowDomains))
	for d := range g.allowDomains {
		out = append(out, d)
	}
	return out
}

// SubprocessEnv returns environment variable assignments that steer a
// spawned subprocess's own HTTP client libraries toward a proxy that
// refuses every connection. This is best effort: it defeats
// well-behaved HTTP clients honoring the standard proxy variables, not
// a kernel-level guarantee, since Go offers no process-wide socket
// interception hook. Processes that dial raw sockets directly are
// outside what a userspace guard can stop.
func (g *Guard) SubprocessEnv() []string {
	if g.mode != specconfig.ReplayOffline {
		return nil
	}
	return []string{
		"HTTP_PROXY=http://127.0.0.1:1",
		"HTTPS_PROXY=http://127.0.0.1:1",
		"http_proxy=http://127.0.0.1:1",
		"https_proxy=http://127.0.0.1:1",
		"NO_PROXY=",
		"no_proxy=",
	}
}

func (g *Guard) check(host string) error {
	if host == "" || isLoopback(host) {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.allowDomains[host] {
		return nil
	}
	g.blockedAttempts = append(g.blockedAttempts, host)
	return BlockedError{Host: host}
}

func (g *Guard) dialResolver(ctx context.Context, network, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	if err := g.check(host); err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// guardedTransport wraps an http.RoundTripper, refusing requests to
// non-loopback, non-allowlisted hosts before they reach inner.
type guardedTransport struct {
	guard *Guard
	inner http.RoundTripper
}

func (t *guardedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.guard.check(req.URL.Hostname()); err != nil {
		return nil, err
	}
	inner := t.inner
	if inner == nil {
		inner = http.DefaultTransport
	}
	return inner.RoundTrip(req)
}

// BlockedError is returned by a dial or round trip refused by the
// guard.
type BlockedError struct {
	Host string
}

func (e BlockedError) Error() string {
	return fmt.Sprintf("replayguard: network access to %q blocked during offline replay", e.Host)
}
