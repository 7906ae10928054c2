// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

import "testing"

func TestLRUGetAdd(t *testing.T) {
	c := New[string, int](4, nil)
	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned ok")
	}
	c.Add("a", 1)
	c.Add("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	c.Add("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after replace = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	var evicted []string
	c := New(2, func(k string, _ int) { evicted = append(evicted, k) })
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // b is now oldest
	c.Add("c", 3)

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("evicted key still present")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s missing", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRUPurge(t *testing.T) {
	var evicted []int
	c := New(8, func(_ int, v int) { evicted = append(evicted, v) })
	for i := range 3 {
		c.Add(i, i*10)
	}
	c.Purge()
	want := []int{0, 10, 20}
	if len(evicted) != len(want) {
		t.Fatalf("evicted = %v, want %v", evicted, want)
	}
	for i := range want {
		if evicted[i] != want[i] {
			t.Fatalf("evicted = %v, want %v", evicted, want)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len after Purge = %d", c.Len())
	}
	// Usable after purge.
	c.Add(5, 50)
	if v, ok := c.Get(5); !ok || v != 50 {
		t.Errorf("Get after Purge = %d, %v", v, ok)
	}
}

func TestLRUCapacityFloor(t *testing.T) {
	c := New[int, int](0, nil)
	if c.Stats().Capacity != 1 {
		t.Fatalf("Capacity = %d, want 1", c.Stats().Capacity)
	}
	c.Add(1, 1)
	c.Add(2, 2)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestLRUStats(t *testing.T) {
	c := New[int, int](1, nil)
	if c.Stats().HitRate() != 0 {
		t.Error("HitRate before lookups is not 0")
	}
	c.Add(1, 1)
	c.Get(1)
	c.Get(2)
	c.Add(2, 2)
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Evictions != 1 || s.Len != 1 || s.Capacity != 1 {
		t.Errorf("Stats = %+v", s)
	}
	if s.HitRate() != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate())
	}
}
