// Package orchestrator coordinates one analysis run end to end.
//
// An upload is stored first, bound to a fresh session, then fanned out to
// every registered analyzer concurrently. Analyzer faults settle into their
// report slots; only infrastructure faults (storage, session bookkeeping)
// abort a run. The finished report is archived and announced best effort.
package orchestrator
