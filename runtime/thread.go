package runtime

import "sync/atomic"

// ---------------------------------------------------------------------------
// Thread and Fiber wrappers
// ---------------------------------------------------------------------------

// Thread is the logical-thread wrapper a context belongs to. It carries the
// thread-event source polled at checkpoints and the per-thread error info.
//
// A thread and its context are mutated only by the goroutine currently
// running the thread, so none of this needs locking; disposal is the one
// operation that may race with a final poll and is guarded by an atomic flag.
type Thread struct {
	name      string
	events    ThreadEvents
	errorInfo Object
	context   *ThreadContext
	disposed  atomic.Bool
}

// NewThread creates a thread wrapper. events may be nil for threads that are
// never interrupted (polling then finds nothing pending).
func NewThread(name string, events ThreadEvents) *Thread {
	return &Thread{name: name, events: events}
}

func (t *Thread) Name() string { return t.name }

// ErrorInfo returns the thread's current error info ($! equivalent).
func (t *Thread) ErrorInfo() Object { return t.errorInfo }

func (t *Thread) SetErrorInfo(errorInfo Object) Object {
	t.errorInfo = errorInfo
	return errorInfo
}

// PollEvents asks the thread-event source for a pending interrupt. A nil
// source or a disposed thread has nothing pending.
func (t *Thread) PollEvents(tc *ThreadContext) error {
	if t.disposed.Load() || t.events == nil {
		return nil
	}
	return t.events.PollEvents(tc)
}

// Dispose releases the thread's context association when the logical thread
// terminates. It is explicit and synchronous; nothing is deferred to the
// collector. Calling it twice is harmless.
func (t *Thread) Dispose() {
	if !t.disposed.CompareAndSwap(false, true) {
		return
	}
	if t.context != nil {
		t.context.thread = nil
		t.context = nil
	}
}

// Fiber is a lightweight coroutine bound to a context. Binding one is a plain
// field assignment performed by the owning thread.
type Fiber struct {
	name string
}

// NewFiber creates a fiber wrapper.
func NewFiber(name string) *Fiber { return &Fiber{name: name} }

func (f *Fiber) Name() string { return f.name }
