// Package events publishes session lifecycle notifications.
//
// Events are best effort: publishing failures are logged and never block or
// fail the operation that produced them. Payloads carry truncated tokens
// only, so the event stream cannot be replayed into the API.
package events
