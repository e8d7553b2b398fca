package handle

import (
	"sync"
	"testing"
)

func TestTable_Basic(t *testing.T) {
	table := NewTable[Object, string]()

	// Insert
	h := table.Insert("test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	// Get
	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	// Remove
	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	// Len should be 0
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
}

func TestTable_ZeroHandle(t *testing.T) {
	table := NewTable[Object, int]()
	table.Insert(42)

	if _, ok := table.Get(0); ok {
		t.Fatal("Get(0) should fail")
	}
	if _, ok := table.Remove(0); ok {
		t.Fatal("Remove(0) should fail")
	}
}

func TestTable_StaleHandle(t *testing.T) {
	table := NewTable[Object, string]()

	h1 := table.Insert("first")
	if _, ok := table.Remove(h1); !ok {
		t.Fatal("Remove failed")
	}

	// Slot is reused, generation is not.
	h2 := table.Insert("second")
	if h1 == h2 {
		t.Fatal("Reused slot must mint a distinct token")
	}

	if _, ok := table.Get(h1); ok {
		t.Fatal("Stale handle should fail Get")
	}
	if _, ok := table.Remove(h1); ok {
		t.Fatal("Stale handle should fail Remove")
	}

	val, ok := table.Get(h2)
	if !ok || val != "second" {
		t.Fatalf("Get(h2) = %v, %v; want 'second', true", val, ok)
	}
}

func TestTable_DoubleRemove(t *testing.T) {
	table := NewTable[Object, int]()

	h := table.Insert(7)
	if _, ok := table.Remove(h); !ok {
		t.Fatal("first Remove failed")
	}
	if _, ok := table.Remove(h); ok {
		t.Fatal("second Remove should fail")
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable[Object, int]()

	want := map[Object]int{
		table.Insert(1): 1,
		table.Insert(2): 2,
		table.Insert(3): 3,
	}

	got := make(map[Object]int)
	table.Each(func(h Object, v int) bool {
		got[h] = v
		return true
	})

	if len(got) != len(want) {
		t.Fatalf("Each visited %d entries, want %d", len(got), len(want))
	}
	for h, v := range want {
		if got[h] != v {
			t.Errorf("Each(%v) = %d, want %d", h, got[h], v)
		}
	}

	// Early stop
	visits := 0
	table.Each(func(Object, int) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Fatalf("Each visited %d entries after stop, want 1", visits)
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable[Object, string]()

	h1 := table.Insert("a")
	table.Insert("b")
	table.Insert("c")

	if table.Len() != 3 {
		t.Fatal("Expected Len() == 3")
	}

	table.Clear()

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
	if _, ok := table.Get(h1); ok {
		t.Fatal("Handles must be stale after Clear")
	}

	// Slots are reusable after Clear
	h2 := table.Insert("d")
	if val, ok := table.Get(h2); !ok || val != "d" {
		t.Fatalf("Get after Clear = %v, %v; want 'd', true", val, ok)
	}
}

func TestTable_ConcurrentAccess(t *testing.T) {
	table := NewTable[Object, int]()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := table.Insert(n*1000 + j)
				if _, ok := table.Get(h); !ok {
					t.Error("Get failed for live handle")
					return
				}
				if _, ok := table.Remove(h); !ok {
					t.Error("Remove failed for live handle")
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if table.Len() != 0 {
		t.Fatalf("Len = %d after all removes, want 0", table.Len())
	}
}
