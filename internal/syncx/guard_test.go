package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("ready")

	old := g.Swap("recording")
	if old != "ready" {
		t.Errorf("Swap returned %q, want %q", old, "ready")
	}
	if got := g.Get(); got != "recording" {
		t.Errorf("Get() after Swap = %q, want %q", got, "recording")
	}
}

func TestGuardRead(t *testing.T) {
	g := NewGuard([]int{1, 2, 3})

	result := g.Read(func(v []int) any {
		return len(v)
	})

	if result != 3 {
		t.Errorf("Read() = %v, want 3", result)
	}
}

func TestGuardWrite(t *testing.T) {
	type stats struct{ errors int }
	g := NewGuard(stats{})

	g.Write(func(s *stats) {
		s.errors++
	})

	if got := g.Get().errors; got != 1 {
		t.Errorf("Get().errors = %d, want 1", got)
	}
}

func TestGuardUpdate(t *testing.T) {
	g := NewGuard(10)

	result := g.Update(func(v *int) any {
		*v *= 2
		return *v
	})

	if result != 20 {
		t.Errorf("Update() = %v, want 20", result)
	}
	if got := g.Get(); got != 20 {
		t.Errorf("Get() after Update = %d, want 20", got)
	}
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Write(func(v *int) { *v++ })
		}()
	}
	wg.Wait()

	if got := g.Get(); got != 100 {
		t.Errorf("Get() = %d, want 100 after concurrent writes", got)
	}
}
