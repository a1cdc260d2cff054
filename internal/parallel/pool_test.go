package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteAll(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var count atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { count.Add(int64(i)) }
	}
	p.ExecuteAll(work)

	if got, want := count.Load(), int64(99*100/2); got != want {
		t.Errorf("sum = %d, want %d", got, want)
	}
}

func TestExecuteAllAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	ran := 0
	p.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran %d items after Close, want 2", ran)
	}
}

func TestExecuteAllDuringClose(t *testing.T) {
	for range 50 {
		p := NewPool(2)

		const callers, items = 8, 64
		var counts [callers * items]atomic.Int32
		var wg sync.WaitGroup
		wg.Add(callers)
		for c := range callers {
			go func() {
				defer wg.Done()
				work := make([]func(), items)
				for i := range work {
					work[i] = func() { counts[c*items+i].Add(1) }
				}
				p.ExecuteAll(work)
			}()
		}
		p.Close()

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatal("ExecuteAll did not return after Close")
		}
		for i := range counts {
			if n := counts[i].Load(); n != 1 {
				t.Fatalf("item %d ran %d times, want 1", i, n)
			}
		}
	}
}

func TestDefaultWorkers(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, want >= 1", p.Workers())
	}
}

func TestBands(t *testing.T) {
	tests := []struct {
		n, parts int
		want     [][2]int
	}{
		{10, 3, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
		{2, 8, [][2]int{{0, 1}, {1, 2}}},
		{5, 0, [][2]int{{0, 5}}},
		{0, 4, nil},
	}
	for _, tt := range tests {
		got := Bands(tt.n, tt.parts)
		if len(got) != len(tt.want) {
			t.Errorf("Bands(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Bands(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
				break
			}
		}
	}
}
