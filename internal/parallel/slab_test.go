// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		n, parts int
		want     []Span
	}{
		{0, 4, nil},
		{-1, 4, nil},
		{8, 1, []Span{{0, 8}}},
		{8, 4, []Span{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{10, 4, []Span{{0, 3}, {3, 6}, {6, 8}, {8, 10}}},
		{3, 8, []Span{{0, 1}, {1, 2}, {2, 3}}},
		{5, 0, []Span{{0, 5}}},
	}
	for _, tt := range tests {
		got := Split(tt.n, tt.parts)
		if len(got) != len(tt.want) {
			t.Errorf("Split(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Split(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
				break
			}
		}
	}
}

func TestSplitCoversRange(t *testing.T) {
	for n := 1; n <= 64; n++ {
		for parts := 1; parts <= 9; parts++ {
			total, next := 0, 0
			for _, s := range Split(n, parts) {
				if s.Lo != next || s.Len() <= 0 {
					t.Fatalf("Split(%d, %d): gap or empty span %v", n, parts, s)
				}
				total += s.Len()
				next = s.Hi
			}
			if total != n {
				t.Fatalf("Split(%d, %d) covers %d", n, parts, total)
			}
		}
	}
}
