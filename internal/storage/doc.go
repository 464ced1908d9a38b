// Package storage persists session-scoped image artifacts.
//
// Each uploaded image is stored exactly once, keyed by its opaque image
// token, and owned by exactly one session. Two backends are provided: Local
// keeps artifacts on the filesystem under the configured upload directory,
// MinIO keeps them as objects in a bucket. Both treat deletion of an absent
// artifact as a no-op so the expiry sweeper and a manual reset can race
// without faulting.
package storage
