// Package session tracks ownership of uploaded images.
//
// A session binds a freshly generated session token to exactly one image
// token. Every later operation must present both tokens, and the pair must
// match the stored record, otherwise the lookup behaves exactly as if the
// session never existed. Expired sessions are equally invisible; the Sweeper
// removes their artifacts and records in the background.
package session
