package prax_test

import (
	"slices"
	"sync"
	"testing"

	"prax-go/internal/prax"
)

func TestDispatcher_RunsInOrder(t *testing.T) {
	d := prax.NewDispatcher()
	defer d.Close()

	var got []int
	for i := 0; i < 100; i++ {
		d.Dispatch(func() { got = append(got, i) })
	}
	d.Sync()

	if len(got) != 100 {
		t.Fatalf("ran %d functions, want 100", len(got))
	}
	if !slices.IsSorted(got) {
		t.Errorf("functions ran out of order: %v", got)
	}
}

func TestDispatcher_ConcurrentProducers(t *testing.T) {
	d := prax.NewDispatcher()
	defer d.Close()

	// Every function runs on the dispatcher goroutine, so count needs no lock.
	count := 0
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				d.Dispatch(func() { count++ })
			}
		}()
	}
	wg.Wait()
	d.Sync()

	if count != 400 {
		t.Errorf("count = %d, want 400", count)
	}
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	d := prax.NewDispatcher()

	ran := 0
	for i := 0; i < 10; i++ {
		d.Dispatch(func() { ran++ })
	}
	d.Close()

	if ran != 10 {
		t.Errorf("ran = %d after Close, want 10", ran)
	}
	if d.Dispatch(func() { ran++ }) {
		t.Error("Dispatch() after Close = true, want false")
	}
	d.Sync()
	d.Close()
}
