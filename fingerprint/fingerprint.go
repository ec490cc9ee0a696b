// Package fingerprint derives cache keys from script source text.
//
// Two sources with equal text always produce the same Fingerprint. SHA256 is
// the default and is collision-resistant for practical purposes. FNV64a is a
// cheap 64-bit hash comparable to a string hashCode; distinct scripts can
// collide under it, in which case the cache and failure memo treat them as
// the same script. That risk is accepted when FNV64a is chosen and is not
// corrected by a content comparison.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strings"
)

// Fingerprint identifies a script source. The zero value is not produced by
// any Func.
type Fingerprint string

// Short returns an abbreviated form for logs.
func (f Fingerprint) Short() string {
	s := string(f)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// Func computes a Fingerprint from source text.
type Func func(source string) Fingerprint

// SHA256 fingerprints the full source text with SHA-256.
func SHA256(source string) Fingerprint {
	sum := sha256.Sum256([]byte(source))
	return Fingerprint("sha256:" + hex.EncodeToString(sum[:]))
}

// FNV64a fingerprints the source text with 64-bit FNV-1a.
func FNV64a(source string) Fingerprint {
	h := fnv.New64a()
	h.Write([]byte(source))
	return Fingerprint("fnv64a:" + hex.EncodeToString(h.Sum(nil)))
}

// ByName resolves an algorithm name used in configuration.
// Empty selects SHA256.
func ByName(name string) (Func, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha256":
		return SHA256, true
	case "fnv64a", "fnv":
		return FNV64a, true
	default:
		return nil, false
	}
}
