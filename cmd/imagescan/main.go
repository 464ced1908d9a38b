// Package main provides the entry point for the imagescan server.
//
// Imagescan is an image forensics service. It accepts image uploads over
// HTTP, runs metadata, tamper, AI-generation, and face analyzers
// concurrently, and serves the aggregated report along with reverse
// image search links.
//
// Usage:
//
//	imagescan serve
//	imagescan serve --addr :9000 --storage minio
//
// See --help for all available options.
package main

// main is the entry point for imagescan.
func main() {
	Execute()
}
