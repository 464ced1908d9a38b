// Package analyzer implements the per-image forensic analyzers and the
// adapter that isolates their faults.
//
// Each analyzer focuses on one forensic question: metadata extraction,
// tamper scoring, AI-generation detection, or face analysis. Analyzers
// return typed results or sentinel errors; the Adapter converts every
// possible fault, including panics and timeouts, into a typed failure slot
// so one misbehaving analyzer can never abort the report.
package analyzer
