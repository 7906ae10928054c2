// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

// Span is the half-open range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Len returns Hi - Lo.
func (s Span) Len() int { return s.Hi - s.Lo }

// Split divides [0, n) into at most parts contiguous spans whose lengths
// differ by at most one. It returns nil when n is not positive.
func Split(n, parts int) []Span {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)
	spans := make([]Span, parts)
	base, extra := n/parts, n%parts
	lo := 0
	for i := range spans {
		size := base
		if i < extra {
			size++
		}
		spans[i] = Span{Lo: lo, Hi: lo + size}
		lo += size
	}
	return spans
}
