package distribute

import "sync/atomic"

// Counter is the shared claim watermark for one upload session. It holds
// the number of payload entries claimed so far across every scanner; the
// value never decreases.
type Counter struct {
	next atomic.Uint64
}

// TryClaim reports whether the caller owns the entry at localIndex.
//
// All scanners observe the archive in the same order from the same
// origin, so the entry at a given index is the same logical entry no
// matter which scanner reaches it. A single compare-and-swap keeps the
// "already claimed?" check and the watermark advance indivisible: the
// swap succeeds only when the watermark still equals localIndex, in
// which case it moves to localIndex+1 and the caller has the claim. Any
// later arrival at the same index sees a higher watermark and loses.
//
// The watermark can never be below a scanner's localIndex: a scanner at
// index i has watched entries 0..i-1 get claimed already.
func (c *Counter) TryClaim(localIndex uint64) bool {
	return c.next.CompareAndSwap(localIndex, localIndex+1)
}

// Claimed returns the number of entries claimed so far.
func (c *Counter) Claimed() uint64 {
	return c.next.Load()
}
