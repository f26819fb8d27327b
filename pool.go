package clonefile

import (
	"runtime"
	"sync"

	"github.com/bamsammich/clonefile/internal/platform"
)

// Pool runs asynchronous clones on a fixed set of worker goroutines.
// Submitted clones wait in a FIFO queue, so a large batch costs one queue
// entry per clone rather than one goroutine.
type Pool struct {
	prim    primitive
	workers int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []poolTask
	closed bool
	wg     sync.WaitGroup
}

type poolTask struct {
	src, dst string
	opts     Options
	f        *Future
}

// DefaultWorkers returns the worker count used when NewPool gets <= 0.
func DefaultWorkers() int {
	return min(runtime.NumCPU()*2, 32)
}

// NewPool creates a pool that runs at most workers clones at once.
func NewPool(workers int) *Pool {
	return newPool(workers, platform.Clonefile)
}

// CloneFunc performs a clone in place of clonefile(2). It receives the raw
// flag bitmask and reports failures as a syscall.Errno, exactly like the
// system call, so errors are classified the same way.
type CloneFunc func(src, dst string, flags uint32) error

// NewPoolWith creates a pool that calls fn instead of clonefile(2).
func NewPoolWith(workers int, fn CloneFunc) *Pool {
	return newPool(workers, func(src, dst string, flags platform.Flags) error {
		return fn(src, dst, uint32(flags))
	})
}

func newPool(workers int, prim primitive) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	p := &Pool{
		prim:    prim,
		workers: workers,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for range workers {
		go func() {
			defer p.wg.Done()
			for {
				t, ok := p.next()
				if !ok {
					return
				}
				t.f.complete(cloneWith(p.prim, t.src, t.dst, t.opts))
			}
		}()
	}
	return p
}

// next blocks until a task is queued. It returns false once the pool is
// closed and the queue has drained.
func (p *Pool) next() (poolTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return poolTask{}, false
	}
	t := p.queue[0]
	p.queue[0] = poolTask{}
	p.queue = p.queue[1:]
	return t, true
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Submit queues a clone and returns immediately. The arguments are copied;
// the caller may reuse them.
func (p *Pool) Submit(src, dst string, opts Options) *Future {
	if err := validatePaths(src, dst); err != nil {
		return rejected(err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return rejected(ErrPoolClosed)
	}
	f := newFuture()
	p.queue = append(p.queue, poolTask{src: src, dst: dst, opts: opts, f: f})
	p.mu.Unlock()
	p.cond.Signal()
	return f
}

// Close stops accepting new clones, lets the workers drain the queue and
// waits for them to exit. Workers run until Close is called.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}
