// Package loop provides the serial scheduler both controllers run on.
//
// Every state mutation of a controller happens inside a function executed by
// its Loop, so controller state needs no locking. External callbacks (engine
// notifications, script loads, player events) never touch state directly; they
// Post a continuation that checks a Token before doing anything.
package loop

import "sync"

// Loop executes posted functions one at a time, in order, on one goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// New starts a loop.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post enqueues fn without waiting. It reports false once the loop is closed.
// Post is safe to call from any goroutine, including the loop itself.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. Everything posted before
// Do has run by the time it returns. Do must not be called from the loop
// goroutine.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	<-ran
	return true
}

// Close stops accepting work. Functions already queued still run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed after Close once the queue has drained.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				close(l.done)
				return
			}
			<-l.wake
			continue
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
