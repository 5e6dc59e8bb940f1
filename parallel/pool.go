// Package parallel provides a persistent worker pool for splitting
// index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// workChunk represents a range of indices for a worker to process.
type workChunk struct {
	start, end int
	fn         func(start, end int)
}

// Pool holds persistent worker goroutines that process chunked ranges.
// Run blocks until every dispatched chunk has completed, so a call to Run
// acts as a barrier between phases.
type Pool struct {
	numWorkers int

	mu sync.Mutex // serializes Run and Stop

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// New creates a pool with the given number of workers.
// workers <= 0 uses runtime.GOMAXPROCS(0).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{numWorkers: workers}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.numWorkers
}

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk := <-p.workChan:
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Run splits [0, n) into contiguous chunks, one per worker, and calls fn
// for each chunk. It returns once all chunks are done. Single-worker pools
// and a nil pool run fn inline.
func (p *Pool) Run(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.numWorkers <= 1 || n < p.numWorkers {
		fn(0, n)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Ensure workers are running
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// Stop signals all workers to exit and waits for them.
// The pool restarts its workers on the next Run.
func (p *Pool) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}
