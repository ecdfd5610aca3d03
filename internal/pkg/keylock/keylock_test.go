package keylock

import (
	"sync"
	"testing"
)

func TestAcquireSerializesSameKey(t *testing.T) {
	r := NewRegistry()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := r.Acquire("vehicle:1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected counter %d, got %d", workers, counter)
	}
}

func TestAcquireDifferentKeysIndependent(t *testing.T) {
	r := NewRegistry()

	unlockA := r.Acquire("a")
	// Must not block even though "a" is held.
	unlockB := r.Acquire("b")

	unlockB()
	unlockA()
}

func TestIdleEntriesAreRemoved(t *testing.T) {
	r := NewRegistry()

	unlock := r.Acquire("k")
	unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.locks) != 0 {
		t.Fatalf("expected empty registry, got %d entries", len(r.locks))
	}
}
