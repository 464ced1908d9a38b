// Package reverse builds reverse-image-search URLs for external engines.
//
// The builder never contacts any engine. It validates the requested engine,
// verifies the session/image token pair, derives the publicly reachable
// artifact URL, and substitutes it into the engine's query template. The
// same inputs always produce the same URL.
package reverse
