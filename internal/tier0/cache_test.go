package tier0

import "testing"

// clock is a simple controllable clock for deterministic expiry tests.
type clock struct{ millis int64 }

func (c *clock) now() int64  { return c.millis }
func (c *clock) set(m int64) { c.millis = m }

func TestTriStateCorrectness(t *testing.T) {
	clk := &clock{millis: 1_000}
	c := New[string](1000, clk.now)

	c.Set("abc", "x", 2_000)

	clk.set(1_500)
	status, val := c.Get("abc")
	if status != Hit || val != "x" {
		t.Fatalf("before expiry: got (%v, %q), want (HIT, %q)", status, val, "x")
	}

	clk.set(2_000)
	status, val = c.Get("abc")
	if status != Expired || val != "x" {
		t.Fatalf("at expiry: got (%v, %q), want (EXPIRED, %q)", status, val, "x")
	}

	status, _ = c.Get("abc")
	if status != Miss {
		t.Fatalf("after expired lookup: got %v, want MISS", status)
	}
}

func TestLRUEviction(t *testing.T) {
	clk := &clock{millis: 0}
	c := New[string](3, clk.now)

	c.Set("k1", "v1", 1_000_000)
	c.Set("k2", "v2", 1_000_000)
	c.Set("k3", "v3", 1_000_000)
	c.Set("k4", "v4", 1_000_000)

	if status, _ := c.Get("k1"); status != Miss {
		t.Errorf("k1: got %v, want MISS", status)
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if status, _ := c.Get(k); status != Hit {
			t.Errorf("%s: got %v, want HIT", k, status)
		}
	}
}

func TestAccessMovesToMostRecent(t *testing.T) {
	clk := &clock{millis: 0}
	c := New[string](2, clk.now)

	c.Set("k0", "v0", 1_000_000)
	c.Set("k1", "v1", 1_000_000)

	// Touch k0 so it becomes most-recent.
	if status, _ := c.Get("k0"); status != Hit {
		t.Fatalf("priming read of k0: got %v", status)
	}

	c.Set("k2", "v2", 1_000_000)

	if status, _ := c.Get("k0"); status != Hit {
		t.Errorf("k0 after touch+insert: got %v, want HIT", status)
	}
	if status, _ := c.Get("k1"); status != Miss {
		t.Errorf("k1 after touch+insert: got %v, want MISS", status)
	}
}

func TestRoundTripPreservesValue(t *testing.T) {
	type artifact struct {
		Body   string
		Status string
	}
	clk := &clock{millis: 0}
	c := New[artifact](10, clk.now)

	want := artifact{Body: "payload", Status: "200"}
	c.Set("k", want, 1_000_000)

	status, got := c.Get("k")
	if status != Hit {
		t.Fatalf("got status %v, want HIT", status)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCapacityNeverExceedsMaximum(t *testing.T) {
	clk := &clock{millis: 0}
	c := New[int](5, clk.now)

	for i := 0; i < 50; i++ {
		c.Set(string(rune('a'+i%26))+string(rune(i)), i, 1_000_000)
	}

	if info := c.Info(); info.Len > 5 {
		t.Errorf("Len = %d, want <= 5", info.Len)
	}
}

func TestSetExistingKeyMovesToMostRecent(t *testing.T) {
	clk := &clock{millis: 0}
	c := New[string](2, clk.now)

	c.Set("k0", "v0", 1_000_000)
	c.Set("k1", "v1", 1_000_000)
	c.Set("k0", "v0-updated", 1_000_000) // re-set, should become most-recent
	c.Set("k2", "v2", 1_000_000)         // evicts LRU, which should now be k1

	if status, _ := c.Get("k0"); status != Hit {
		t.Errorf("k0: got %v, want HIT", status)
	}
	if status, _ := c.Get("k1"); status != Miss {
		t.Errorf("k1: got %v, want MISS", status)
	}
}

func TestL0HitServesCachedBody(t *testing.T) {
	clk := &clock{millis: 1_999_000_000_000}
	c := New[map[string]string](1000, clk.now)

	c.Set("abc", map[string]string{"body": "x", "status": "200"}, 2_000_000_000_000)

	status, val := c.Get("abc")
	if status != Hit {
		t.Fatalf("got %v, want HIT", status)
	}
	if val["body"] != "x" {
		t.Errorf("body = %q, want %q", val["body"], "x")
	}
}

func TestLRUEvictionOfOldestAmongThree(t *testing.T) {
	clk := &clock{millis: 0}
	c := New[string](3, clk.now)

	c.Set("k1", "v1", 1_000_000)
	c.Set("k2", "v2", 1_000_000)
	c.Set("k3", "v3", 1_000_000)
	c.Set("k4", "v4", 1_000_000)

	if status, _ := c.Get("k1"); status != Miss {
		t.Errorf("k1: got %v, want MISS", status)
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if status, _ := c.Get(k); status != Hit {
			t.Errorf("%s: got %v, want HIT", k, status)
		}
	}
}

func TestCapacityBudget(t *testing.T) {
	b := CapacityBudget{MemoryBudgetMiB: 256, EntriesPerGiB: 4096}
	if got := b.Capacity(); got != 1024 {
		t.Errorf("Capacity() = %d, want 1024", got)
	}

	fallback := CapacityBudget{DefaultMaxEntries: 500}
	if got := fallback.Capacity(); got != 500 {
		t.Errorf("fallback Capacity() = %d, want 500", got)
	}

	floor := CapacityBudget{}
	if got := floor.Capacity(); got != 1 {
		t.Errorf("floor Capacity() = %d, want 1", got)
	}
}
