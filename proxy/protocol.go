// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"strconv"
	"strings"
)

// Canned responses. The proxy speaks the absolute minimum of HTTP/1.1:
// these byte strings are the entire response surface.
const (
	establishedResponse = "HTTP/1.1 200 Connection Established\r\n\r\n"

	// CONNECT denials get a bare 403: the client treats the tunnel as
	// refused and never reads a body.
	tunnelForbiddenResponse = "HTTP/1.1 403 Forbidden\r\n\r\n"

	// Forwarded-request denials carry Content-Length: 0 so the client
	// can parse the response without waiting for a close.
	forwardForbiddenResponse = "HTTP/1.1 403 Forbidden\r\nContent-Length: 0\r\n\r\n"

	// Upstream dial failures: the dial error text follows as the body,
	// delimited by connection close.
	badGatewayResponse = "HTTP/1.1 502 Bad Gateway\r\n\r\n"
)

// splitConnectTarget parses the host and port from a CONNECT target
// such as "github.com:443". The split is on the last colon; an absent
// or unparsable port falls back to 443.
func splitConnectTarget(target string) (host string, port int) {
	index := strings.LastIndexByte(target, ':')
	if index < 0 {
		return target, 443
	}
	return target[:index], parsePort(target[index+1:], 443)
}

// hostFromURL extracts the hostname from an absolute HTTP URL:
// everything after the scheme up to the first slash, with any
// ":port" suffix removed (split on the last colon).
func hostFromURL(url string) string {
	hostPort := hostPortSection(url)
	if index := strings.LastIndexByte(hostPort, ':'); index >= 0 {
		return hostPort[:index]
	}
	return hostPort
}

// portFromURL extracts the port from an absolute HTTP URL. An absent
// or unparsable port falls back on the scheme: 443 for a literal
// "https://" prefix, 80 otherwise.
func portFromURL(url string) int {
	fallback := 80
	if strings.HasPrefix(url, "https://") {
		fallback = 443
	}
	hostPort := hostPortSection(url)
	if index := strings.LastIndexByte(hostPort, ':'); index >= 0 {
		return parsePort(hostPort[index+1:], fallback)
	}
	return fallback
}

// pathFromURL converts an absolute URL to the origin-form path sent
// upstream: the substring from the first slash after the scheme and
// host, or "/" when the URL has no path. The query string rides along
// untouched.
func pathFromURL(url string) string {
	remainder := stripScheme(url)
	if index := strings.IndexByte(remainder, '/'); index >= 0 {
		return remainder[index:]
	}
	return "/"
}

// hostPortSection returns the "host[:port]" section of an absolute
// URL: the scheme prefix stripped, truncated at the first slash.
func hostPortSection(url string) string {
	remainder := stripScheme(url)
	if index := strings.IndexByte(remainder, '/'); index >= 0 {
		return remainder[:index]
	}
	return remainder
}

// stripScheme removes a leading "http://" or "https://". Anything
// else passes through unchanged.
func stripScheme(url string) string {
	if after, ok := strings.CutPrefix(url, "http://"); ok {
		return after
	}
	if after, ok := strings.CutPrefix(url, "https://"); ok {
		return after
	}
	return url
}

// parsePort parses a decimal port, returning fallback for anything
// that is not a valid port number.
func parsePort(s string, fallback int) int {
	port, err := strconv.Atoi(s)
	if err != nil || port < 0 || port > 65535 {
		return fallback
	}
	return port
}
