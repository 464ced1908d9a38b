// Package server exposes the forensics service over HTTP.
//
// The handler layer is a thin gateway: it validates uploads and token
// pairs, translates domain errors to status codes, and delegates all real
// work to the orchestrator, session store, and report archive. Client
// mistakes map to 4xx; only infrastructure faults produce 5xx.
package server
