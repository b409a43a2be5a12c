package topic

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		filter, top string
		want        bool
	}{
		{"a/#", "a", true},
		{"a/#", "a/b/c", true},
		{"+", "a/b", false},
		{"+", "a", true},
		{"#", "$SYS/x", false},
		{"#", "a/b", true},
		{"a/+/c", "a/b/c", true},
		{"a/+/c", "a/b/d", false},
		{"a//c", "a//c", true},
		{"a//c", "a/c", false},
		{"sensors/+/temp", "sensors/kitchen/temp", true},
		{"sensors/+/temp", "sensors/kitchen/temp/extra", false},
	}
	for _, c := range cases {
		if got := Match(c.filter, c.top); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.filter, c.top, got, c.want)
		}
	}
}

func TestCacheMemoizes(t *testing.T) {
	c := NewCache[string](0)
	c.Register("a/+/c", "H1")
	c.Register("a/#", "H2")

	got := c.Match("a/b/c")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(got), got)
	}

	// second call must hit the memoized path and return the same result.
	got2 := c.Match("a/b/c")
	if len(got2) != 2 {
		t.Fatalf("expected memoized 2 matches, got %d", len(got2))
	}
}

func TestCacheBounded(t *testing.T) {
	c := NewCache[int](2)
	c.Register("x", 1)
	c.Match("t1")
	c.Match("t2")
	c.Match("t3")
	c.mu.RLock()
	n := len(c.exact)
	c.mu.RUnlock()
	if n > 2 {
		t.Fatalf("expected cache bounded to 2 entries, got %d", n)
	}
}
