package cache

import (
	"testing"
	"time"
)

func TestAddAndGet(t *testing.T) {
	c := NewTimeBounded[string, string]("test", time.Hour)
	c.Add("k1", "v1")
	got, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected to get back the value we just added")
	}
	if got != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}
}

func TestAddOverwritesValueAndStamp(t *testing.T) {
	c := NewTimeBounded[string, string]("test", time.Hour)
	base := time.Now()
	c.now = func() time.Time { return base.Add(-2 * time.Hour) }
	c.Add("k1", "old")
	c.now = func() time.Time { return base }
	c.Add("k1", "new")

	// The re-add restamped the entry, so cleanup must keep it.
	c.Cleanup()
	got, ok := c.Get("k1")
	if !ok || got != "new" {
		t.Errorf("Get() = %q, %v; want new, true", got, ok)
	}
}

func TestCleanupRemovesOnlyExpired(t *testing.T) {
	c := NewTimeBounded[string, int]("test", time.Hour)
	base := time.Now()
	c.now = func() time.Time { return base.Add(-90 * time.Minute) }
	c.Add("stale", 1)
	c.now = func() time.Time { return base.Add(-10 * time.Minute) }
	c.Add("fresh", 2)
	c.now = func() time.Time { return base }

	c.Cleanup()

	if c.Contains("stale") {
		t.Error("expected stale entry to be removed by cleanup")
	}
	if !c.Contains("fresh") {
		t.Error("expected fresh entry to survive cleanup")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestAgeEnforcedOnlyAtCleanup(t *testing.T) {
	c := NewTimeBounded[string, int]("test", time.Hour)
	base := time.Now()
	c.now = func() time.Time { return base.Add(-2 * time.Hour) }
	c.Add("old", 1)
	c.now = func() time.Time { return base }

	// Reads don't evict: the entry is stale but still visible until Cleanup.
	if !c.Contains("old") {
		t.Error("Contains() should be age-blind before cleanup")
	}
	if _, ok := c.Get("old"); !ok {
		t.Error("Get() should return stale entries before cleanup")
	}
}

func TestDefaultValue(t *testing.T) {
	c := NewTimeBounded[string, string]("games", 24*time.Hour)
	c.SetDefault("Unlisted Game")

	got, ok := c.Get("missing")
	if !ok || got != "Unlisted Game" {
		t.Errorf("Get(missing) = %q, %v; want default value", got, ok)
	}
	// Contains is unaffected by the default.
	if c.Contains("missing") {
		t.Error("Contains(missing) should be false even with a default configured")
	}
}

func TestGetAbsentWithoutDefault(t *testing.T) {
	c := NewTimeBounded[string, string]("users", time.Hour)
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report absence when no default is set")
	}
}

func TestAddMany(t *testing.T) {
	c := NewTimeBounded[string, int]("test", time.Hour)
	c.AddMany(map[string]int{"a": 1, "b": 2, "c": 3})
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if got, _ := c.Get(k); got != want {
			t.Errorf("Get(%q) = %d, want %d", k, got, want)
		}
	}
}
