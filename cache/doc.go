// Package cache holds the two fingerprint-keyed maps owned by a runtime: the
// compilation cache (Programs) and the failure memo (Failures).
//
// Both are safe for concurrent use behind a single RWMutex each. Entries are
// only inserted or overwritten, never updated in place, so lock coarseness
// affects throughput and not correctness.
//
// Neither map evicts on its own. Programs keeps an entry even when later runs
// of that program fail; recording the failure is the caller's job.
package cache
