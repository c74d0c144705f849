package mpm

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum particle count to use the worker pool.
// Below this, single-threaded is faster due to dispatch overhead.
const parallelThreshold = 256

type chunkKind uint8

const (
	chunkScatter chunkKind = iota
	chunkGridRows
	chunkGather
)

// stepChunk is a range of work for one worker: particles for the scatter
// and gather phases, node rows for the grid pass.
type stepChunk struct {
	kind       chunkKind
	start, end int
	dt         float32
}

// stepPool runs the three step phases on persistent workers. Each phase
// fully drains before the next is dispatched, which is the ordering barrier
// the transfer scheme requires. Scatter writes go to per-worker private
// grids that are merged in worker order afterwards, so node accumulation
// needs no atomics and the merge is deterministic.
type stepPool struct {
	sim        *Simulation
	numWorkers int
	grids      []*Grid // private scatter targets, one per worker

	// grid is the shared phase target, set before each dispatch. The
	// channel send/receive pair orders the write against worker reads.
	grid *Grid

	workChan chan stepChunk
	doneChan chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newStepPool(s *Simulation) *stepPool {
	numWorkers := runtime.GOMAXPROCS(0)
	grids := make([]*Grid, numWorkers)
	for i := range grids {
		grids[i] = NewGrid(s.params.Res)
	}
	return &stepPool{
		sim:        s,
		numWorkers: numWorkers,
		grids:      grids,
	}
}

// start launches the persistent worker goroutines.
func (p *stepPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan stepChunk, p.numWorkers)
	p.doneChan = make(chan error, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *stepPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped. Scatter chunks target the
// worker's private grid; the other phases share the pool's grid.
func (p *stepPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			var err error
			switch chunk.kind {
			case chunkScatter:
				err = p.sim.scatterRange(p.grids[id], chunk.start, chunk.end, chunk.dt)
			case chunkGridRows:
				p.sim.updateNodeRows(p.grid, chunk.start, chunk.end, chunk.dt)
			case chunkGather:
				err = p.sim.gatherRange(p.grid, chunk.start, chunk.end, chunk.dt)
			}
			p.doneChan <- err
		}
	}
}

// run dispatches the range [0, total) in worker-sized chunks and waits for
// completion. The first worker error wins.
func (p *stepPool) run(kind chunkKind, total int, dt float32) error {
	if !p.running {
		p.start()
	}
	chunkSize := (total + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, total)
		if start >= end {
			continue
		}
		p.workChan <- stepChunk{kind: kind, start: start, end: end, dt: dt}
		dispatched++
	}

	var firstErr error
	for i := 0; i < dispatched; i++ {
		if err := <-p.doneChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// scatter runs the particle-to-grid phase on the pool and merges the
// per-worker grids into grid.
func (p *stepPool) scatter(grid *Grid, dt float32) error {
	for _, g := range p.grids {
		g.Reset()
	}
	if err := p.run(chunkScatter, len(p.sim.particles), dt); err != nil {
		return err
	}
	for _, g := range p.grids {
		grid.accumulate(g)
	}
	return nil
}

// gridPass runs the grid velocity update on the pool, chunked by node row.
func (p *stepPool) gridPass(grid *Grid, dt float32) {
	p.grid = grid
	p.run(chunkGridRows, grid.NodeCount(), dt)
}

// gather runs the grid-to-particle phase on the pool.
func (p *stepPool) gather(grid *Grid, dt float32) error {
	p.grid = grid
	return p.run(chunkGather, len(p.sim.particles), dt)
}
