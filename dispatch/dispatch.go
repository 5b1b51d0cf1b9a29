// Package dispatch provides the data-parallel kernel dispatcher used by
// the flow-field relaxation and the agent step kernel. A dispatch is a
// fork-join over a fixed range: the range is split into per-worker
// chunks, each chunk is one independent task, and Run does not return
// until every task has completed. Tasks must write only their own
// output slots; the dispatcher adds no synchronization beyond the join.
package dispatch

import (
	"runtime"
	"sync"
)

// serialThreshold is the minimum item count worth fanning out. Below
// this, goroutine overhead dominates and the chunk runs inline.
const serialThreshold = 64

type chunk struct {
	start, end int
	fn         func(start, end int)
}

// Pool is a persistent worker pool. Workers start lazily on the first
// parallel Run and live until Stop.
type Pool struct {
	numWorkers int

	workChan chan chunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewPool creates a pool sized to GOMAXPROCS. workers <= 0 uses the
// default.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{numWorkers: workers}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.numWorkers }

// Run executes fn over [0, n) and blocks until all chunks complete.
// fn is invoked with disjoint [start, end) ranges.
func (p *Pool) Run(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < serialThreshold || p.numWorkers == 1 {
		fn(0, n)
		return
	}
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- chunk{start: start, end: end, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// Stop signals all workers to exit and waits for them. The pool may be
// reused; workers restart on the next Run.
func (p *Pool) Stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *Pool) start() {
	p.workChan = make(chan chunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case c, ok := <-p.workChan:
			if !ok {
				return
			}
			c.fn(c.start, c.end)
			p.doneChan <- struct{}{}
		}
	}
}
