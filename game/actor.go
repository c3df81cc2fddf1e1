package game

import "context"

// actor serializes every state change of one session on a single goroutine.
// Work is queued as closures; a stopped actor drops whatever is still queued.
type actor struct {
	inbox  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
}

func newActor(size int) *actor {
	ctx, cancel := context.WithCancel(context.Background())
	return &actor{
		inbox:  make(chan func(), size),
		ctx:    ctx,
		cancel: cancel,
		exited: make(chan struct{}),
	}
}

func (a *actor) run() {
	defer close(a.exited)
	for {
		select {
		case <-a.ctx.Done():
			return
		case fn := <-a.inbox:
			if a.ctx.Err() != nil {
				return
			}
			fn()
		}
	}
}

// stop may be called from inside a closure; the loop exits once it returns.
func (a *actor) stop() {
	a.cancel()
}

// post queues fn without waiting for it.
func (a *actor) post(fn func()) bool {
	select {
	case <-a.ctx.Done():
		return false
	case a.inbox <- fn:
		return true
	}
}

// call runs fn on the actor and waits for it. It reports false when the
// actor stopped before fn could run. Never call it from the actor itself.
func (a *actor) call(fn func()) bool {
	done := make(chan struct{})
	if !a.post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}

	select {
	case <-done:
		return true
	case <-a.exited:
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}
