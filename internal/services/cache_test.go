package services

import "testing"

func TestLRUCache(t *testing.T) {
	cache, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	cache.Add("a", []byte("1"))
	cache.Add("b", []byte("2"))

	if _, ok := cache.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}

	cache.Add("c", []byte("3"))

	if _, ok := cache.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	if v, ok := cache.Get("a"); !ok || string(v) != "1" {
		t.Errorf("expected a to survive, got %q %v", v, ok)
	}
	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}

	cache.Purge()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after purge, got %d", cache.Len())
	}

	t.Run("non-positive size uses default", func(t *testing.T) {
		c, err := NewLRUCache(0)
		if err != nil {
			t.Fatalf("NewLRUCache(0) error = %v", err)
		}
		for i := 0; i < DefaultCacheSize+5; i++ {
			c.Add(string(rune('a'+i)), nil)
		}
		if c.Len() != DefaultCacheSize {
			t.Errorf("expected %d entries, got %d", DefaultCacheSize, c.Len())
		}
	})
}
