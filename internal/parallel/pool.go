// Package parallel provides the worker pool used to fan out resampling
// bands and batch image jobs.
package parallel

import (
	"runtime"
	"sync"
)

// Pool runs work items on a fixed set of goroutines. Each worker owns a
// queue and steals from the others when its own queue is empty, which keeps
// uneven jobs (images of different sizes) balanced.
//
// Pool is safe for concurrent use, including ExecuteAll racing with Close.
// Work items must not call ExecuteAll on the pool that runs them.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu is held shared while ExecuteAll enqueues and exclusively while
	// Close flips running, so no item lands in a queue nobody drains.
	mu      sync.RWMutex
	running bool
}

// NewPool starts a pool with the given number of workers.
// If workers <= 0, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running = true

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *Pool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin and blocks until every item has
// run. Items submitted after Close run on the caller's goroutine.
func (p *Pool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			fn()
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Close stops the workers after the queued work has run.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Bands splits [0, n) into at most parts contiguous half-open ranges.
func Bands(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	out := make([][2]int, 0, parts)
	step := (n + parts - 1) / parts
	for lo := 0; lo < n; lo += step {
		out = append(out, [2]int{lo, min(lo+step, n)})
	}
	return out
}
