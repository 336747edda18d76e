// Package journal persists hook firings so operators can answer "what ran,
// and when" after the fact.
//
// Drivers:
//   - none: journaling disabled (Open returns nil, nil)
//   - file: append-only JSON Lines file with size/age based pruning
//   - sqlite: SQLite database (build with -tags sqlite)
//
// Writes go through a Recorder that rate-limits and buffers appends off the
// poll loop. The journal is lossy under pressure: excess records are dropped,
// never queued unboundedly, and an unavailable journal never blocks a pass.
package journal
