package model

import "time"

// Session binds one uploaded image to two independent opaque tokens for a
// bounded lifetime. The image is reachable only with both tokens, which
// prevents enumeration of either token space on its own.
//
// Exactly one Session owns exactly one image's storage location; storage is
// reclaimed when the session is reset or expires.
type Session struct {
	// SessionID is the opaque session token.
	SessionID string `json:"session_id"`

	// ImageID is the opaque image token. Independent of SessionID.
	ImageID string `json:"image_id"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the session stops being live.
	// Invariant: ExpiresAt is strictly after CreatedAt.
	ExpiresAt time.Time `json:"expires_at"`

	// StorageLocation is the backend-specific location of the image bytes.
	StorageLocation string `json:"storage_location"`

	// MIMEType is the declared MIME type of the upload.
	MIMEType string `json:"mime_type"`

	// Size is the upload size in bytes.
	Size int64 `json:"size"`
}

// Live reports whether the session has not expired at the given instant.
func (s Session) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
