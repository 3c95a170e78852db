package systems

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orbitfall/ballistics"
)

// parallelThreshold is the minimum job count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 8

// solveJob is one targeting solve captured from the ECS so it can run
// without touching the world.
type solveJob struct {
	tank     ecs.Entity
	tankID   uint32
	targetID uint32
	distance float64
	req      ballistics.Request
	sol      ballistics.Solution
}

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
}

// solvePool runs solver jobs on persistent worker goroutines. Results are
// written in place, so job order and output are deterministic.
type solvePool struct {
	solver     *ballistics.Solver
	jobs       []solveJob
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newSolvePool(solver *ballistics.Solver) *solvePool {
	return &solvePool{
		solver:     solver,
		numWorkers: runtime.GOMAXPROCS(0),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *solvePool) startWorkers() {
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

// stopWorkers signals all workers to exit and waits for them.
func (p *solvePool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *solvePool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.solveChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

func (p *solvePool) solveChunk(start, end int) {
	for i := start; i < end; i++ {
		p.jobs[i].sol = p.solver.SolveRequest(p.jobs[i].req)
	}
}

// run solves every queued job.
func (p *solvePool) run() {
	n := len(p.jobs)
	if n == 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers < 2 {
		p.solveChunk(0, n)
		return
	}

	p.startWorkers()
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunks := 0
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		p.workChan <- workChunk{start: start, end: end}
		chunks++
	}
	for i := 0; i < chunks; i++ {
		<-p.doneChan
	}
}
