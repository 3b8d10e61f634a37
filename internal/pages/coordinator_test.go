package pages

import (
	"errors"
	"sync"
	"testing"
)

func TestPendingBeginAndDone(t *testing.T) {
	var p Pending

	done, err := p.Begin("item_1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Is("item_1") {
		t.Fatal("expected item_1 pending")
	}
	if p.Is("item_2") {
		t.Fatal("item_2 should not be pending")
	}

	if _, err := p.Begin("item_1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	other, err := p.Begin("item_2")
	if err != nil {
		t.Fatalf("different target should not be blocked: %v", err)
	}
	other()

	done()
	done()
	if p.Is("item_1") {
		t.Error("expected item_1 cleared")
	}
	if _, err := p.Begin("item_1"); err != nil {
		t.Errorf("expected item_1 to be available again: %v", err)
	}
}

func TestPendingConcurrentBegin(t *testing.T) {
	var p Pending
	var wg sync.WaitGroup
	var mu sync.Mutex
	var won int

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Begin("same"); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("expected exactly one winner, got %d", won)
	}
}

func TestCoordinatorNilNotifier(t *testing.T) {
	c := NewCoordinator(agent, nil, nil)
	c.success("ok")
	c.staminaChanged()
}

func TestFirstN(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := firstN(items, 3); len(got) != 3 || got[2] != 3 {
		t.Errorf("unexpected %v", got)
	}
	if got := firstN(items, 10); len(got) != 5 {
		t.Errorf("unexpected %v", got)
	}
	got := firstN(items, 2)
	got[0] = 99
	if items[0] != 1 {
		t.Error("firstN must copy")
	}
}
