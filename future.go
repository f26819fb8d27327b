package clonefile

import "context"

// Future is the deferred result of an asynchronous clone. It completes
// exactly once.
type Future struct {
	done chan struct{}
	code int
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func rejected(err error) *Future {
	f := newFuture()
	f.complete(failed, err)
	return f
}

func (f *Future) complete(code int, err error) {
	f.code = code
	f.err = err
	close(f.done)
}

// Done is closed once the clone has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the clone finishes and returns its result.
func (f *Future) Wait() (int, error) {
	<-f.done
	return f.code, f.err
}

// Await is Wait bounded by ctx. If ctx ends first it returns ctx.Err();
// the clone itself is not interrupted and the future still completes.
func (f *Future) Await(ctx context.Context) (int, error) {
	select {
	case <-f.done:
		return f.code, f.err
	case <-ctx.Done():
		return failed, ctx.Err()
	}
}
