package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/SludgePhD/Providence/providenceerr"
)

func TestSlotExchange(t *testing.T) {
	w, r := New[int]()
	if r.IsDisconnected() {
		t.Fatal("fresh slot reports disconnected")
	}
	if _, ok := r.Get(); ok {
		t.Fatal("Get on empty slot should report no value")
	}
	if _, ok := r.Next(); ok {
		t.Fatal("Next on empty slot should report no value")
	}

	w.Update(123)

	v, ok := r.Next()
	if !ok || v != 123 {
		t.Fatalf("Next() = %v, %v; want 123, true", v, ok)
	}
	if _, ok := r.Next(); ok {
		t.Fatal("second Next() should report no new value")
	}

	v, ok = r.Get()
	if !ok || v != 123 {
		t.Fatalf("Get() = %v, %v; want 123, true", v, ok)
	}
	if _, ok := r.Next(); ok {
		t.Fatal("Next() after Get() of the same value should report no new value")
	}

	w.Close()
	if !r.IsDisconnected() {
		t.Fatal("reader should observe disconnect after writer Close")
	}
	if _, err := r.Block(); !errors.Is(err, providenceerr.Disconnected) {
		t.Fatalf("Block() after close = %v; want Disconnected", err)
	}
	if _, err := r.Block(); !errors.Is(err, providenceerr.Disconnected) {
		t.Fatal("Block() should keep returning Disconnected")
	}
}

// TestLatestWins covers invariant 4 / scenario S4: writing 1, 2, 3 with no
// intervening read leaves Next() returning only the latest value, once.
func TestLatestWins(t *testing.T) {
	w, r := New[int]()
	w.Update(1)
	w.Update(2)
	w.Update(3)

	v, ok := r.Next()
	if !ok || v != 3 {
		t.Fatalf("Next() = %v, %v; want 3, true", v, ok)
	}
	if _, ok := r.Next(); ok {
		t.Fatal("Next() should be empty after draining the latest value")
	}
	for i := 0; i < 5; i++ {
		v, ok := r.Get()
		if !ok || v != 3 {
			t.Fatalf("Get() = %v, %v; want 3, true", v, ok)
		}
	}
}

func TestBlockWakesOnUpdate(t *testing.T) {
	w, r := New[int]()
	done := make(chan struct{})
	go func() {
		w.Update(456)
		close(done)
	}()

	v, err := r.Block()
	if err != nil || v != 456 {
		t.Fatalf("Block() = %v, %v; want 456, nil", v, err)
	}
	<-done

	w.Close()
	if _, err := r.Block(); !errors.Is(err, providenceerr.Disconnected) {
		t.Fatalf("Block() after close = %v; want Disconnected", err)
	}
}

func TestWaitMirrorsBlock(t *testing.T) {
	w, r := New[int]()
	go func() {
		time.Sleep(time.Millisecond)
		w.Update(456)
	}()

	v, err := r.Wait()
	if err != nil || v != 456 {
		t.Fatalf("Wait() = %v, %v; want 456, nil", v, err)
	}

	w.Close()
	if _, err := r.Wait(); !errors.Is(err, providenceerr.Disconnected) {
		t.Fatalf("Wait() after close = %v; want Disconnected", err)
	}
}

func TestClear(t *testing.T) {
	w, r := New[int]()
	w.Update(123)

	w.Clear()
	if _, ok := r.Get(); ok {
		t.Fatal("Get() after Clear() should report no value")
	}
	if _, ok := r.Next(); ok {
		t.Fatal("Next() after Clear() should report no value")
	}
	if r.IsDisconnected() {
		t.Fatal("Clear() should not disconnect the slot")
	}

	w.Update(456)
	v, ok := r.Get()
	if !ok || v != 456 {
		t.Fatalf("Get() after Clear()+Update() = %v, %v; want 456, true", v, ok)
	}
}

func TestClone(t *testing.T) {
	w, r := New[int]()
	w.Update(123)
	r2 := r.Clone()

	v1, err1 := r.Block()
	v2, err2 := r2.Block()
	if err1 != nil || v1 != 123 {
		t.Fatalf("r.Block() = %v, %v; want 123, nil", v1, err1)
	}
	if err2 != nil || v2 != 123 {
		t.Fatalf("r2.Block() = %v, %v; want 123, nil", v2, err2)
	}
}
