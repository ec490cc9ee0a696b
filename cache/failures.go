package cache

import (
	"errors"
	"sync"
	"time"

	rterrors "github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/fingerprint"
)

// Failure is a memoized compile or execution failure.
type Failure struct {
	At      time.Time
	Message string
	Phase   rterrors.Phase
	Kind    rterrors.Kind
}

// Failures remembers the last failure per fingerprint. Entries are written
// last-writer-wins and stay until Delete or Reset.
type Failures struct {
	entries map[fingerprint.Fingerprint]Failure
	now     func() time.Time
	mu      sync.RWMutex
}

// NewFailures creates an empty failure memo.
func NewFailures() *Failures {
	return &Failures{
		entries: make(map[fingerprint.Fingerprint]Failure),
		now:     time.Now,
	}
}

// Lookup returns the recorded failure for fp.
func (f *Failures) Lookup(fp fingerprint.Fingerprint) (Failure, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	failure, ok := f.entries[fp]
	return failure, ok
}

// Record stores err as the failure for fp, overwriting any previous entry.
func (f *Failures) Record(fp fingerprint.Fingerprint, err error) Failure {
	failure := Failure{
		At:      f.now(),
		Message: err.Error(),
	}
	var rtErr *rterrors.Error
	if errors.As(err, &rtErr) {
		failure.Phase = rtErr.Phase
		failure.Kind = rtErr.Kind
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[fp] = failure
	return failure
}

// Delete clears the failure for fp and reports whether one existed.
func (f *Failures) Delete(fp fingerprint.Fingerprint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[fp]
	delete(f.entries, fp)
	return ok
}

// Reset clears every failure.
func (f *Failures) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.entries)
}

// Len returns the number of memoized failures.
func (f *Failures) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
