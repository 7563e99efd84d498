// Package fetch provides the HTTP collaborator for the crawler.
//
// The Client wraps net/http with the crawl's transport policy: per-request
// timeout, browser-like headers, an optional SOCKS5 proxy, per-host
// cookie/header injection, and a response body size cap. Failures are
// reported as typed *Error values (network, timeout, or status kind) so the
// traversal can log and skip a page without inspecting error strings.
package fetch
