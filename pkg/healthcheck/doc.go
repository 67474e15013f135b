// Package healthcheck answers liveness/readiness probes for a running command.
//
// A command exposes named boolean checks. The Activator collects them into a
// Registry, and a Server evaluates every check on each probe and replies with
// a JSON map of results: HTTP 200 when all checks pass, 500 otherwise.
package healthcheck
