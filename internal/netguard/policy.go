// Package netguard makes outbound network use during a test run fail loudly.
//
// A Policy is passed explicitly to whatever needs an HTTP client, and its
// Environ entries are exported to the processes the harness spawns, so the
// application under test sees the same rule.
//
// The run command only consumes Environ today. Transport and Client are the
// hook for any HTTP client the harness hands out; nothing else may build one.
package netguard

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNetworkBlocked is returned for every request made through a blocking policy
var ErrNetworkBlocked = errors.New("outbound network access is blocked during tests")

// BlockEnvVar tells child processes that network access is forbidden
const BlockEnvVar = "TEST_BACKEND_BLOCK_NETWORK"

// proxyVars are cleared so nothing is routed through a developer's proxy
var proxyVars = []string{"http_proxy", "https_proxy", "HTTP_PROXY", "HTTPS_PROXY"}

// Policy decides whether outbound requests may proceed
type Policy struct {
	block bool
}

// Block returns a policy that refuses all outbound requests
func Block() *Policy {
	return &Policy{block: true}
}

// Allow returns a policy that lets requests through the default transport
func Allow() *Policy {
	return &Policy{}
}

// Blocking reports whether the policy refuses requests
func (p *Policy) Blocking() bool {
	return p.block
}

// Transport wraps base (http.DefaultTransport when nil) with the policy
func (p *Policy) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if !p.block {
		return base
	}
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), ErrNetworkBlocked)
	})
}

// Client returns an HTTP client governed by the policy
func (p *Policy) Client() *http.Client {
	return &http.Client{Transport: p.Transport(nil)}
}

// Environ returns the KEY=VALUE entries child processes must receive.
// Proxy variables are always cleared.
func (p *Policy) Environ() []string {
	env := make([]string, 0, len(proxyVars)+1)
	for _, v := range proxyVars {
		env = append(env, v+"=")
	}
	if p.block {
		env = append(env, BlockEnvVar+"=1")
	}
	return env
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
