package framegraph

import (
	"runtime"
	"sync/atomic"

	"github.com/duskengine/render/device"
	"github.com/duskengine/render/pipelinecache"
)

// WorkerState is a render-thread worker's explicit state, held in an
// atomic word and changed by atomic stores: Run moves it through
// HasJobToDo and Busy back to Ready, and Shutdown (called by the
// Scheduler) stores WaitingShutdown.
type WorkerState int32

const (
	WorkerReady WorkerState = iota
	WorkerHasJobToDo
	WorkerBusy
	WorkerWaitingShutdown
)

// ExecutionState tracks a single queued pass's progress through a
// worker's queue, used by dependent passes (possibly on other workers)
// to spin-wait for completion.
type ExecutionState int32

const (
	ExecutionPending ExecutionState = iota
	ExecutionInProgress
	ExecutionDone
)

type queuedPass struct {
	handle ExecutionState
	pass   PassHandle
}

// Worker is one render-thread worker: a queue of passes and an explicit
// atomic state. Its cache field is never set by newWorker, and pass
// callbacks receive only the command list, not a pipeline-state cache.
type Worker struct {
	index int
	dev   device.Device
	cache *pipelinecache.Cache

	state atomic.Int32
	queue []PassHandle
	exec  []atomic.Int32 // per-queued-pass ExecutionState, parallel to queue

	cmdLists []device.Handle
}

func newWorker(index int, dev device.Device) *Worker {
	w := &Worker{index: index, dev: dev}
	w.state.Store(int32(WorkerReady))
	return w
}

// State returns the worker's current state.
func (w *Worker) State() WorkerState { return WorkerState(w.state.Load()) }

// Enqueue replaces the worker's pass queue for the next Run.
func (w *Worker) Enqueue(passes []PassHandle) {
	w.queue = passes
	w.exec = make([]atomic.Int32, len(passes))
}

// CommandLists returns the command lists the worker allocated during its
// last Run, for dispatcher-ordered submission.
func (w *Worker) CommandLists() []device.Handle { return w.cmdLists }

// Run executes the worker's queued passes synchronously (standing in for
// a dedicated OS thread in this module's single-process model): flips to
// HasJobToDo then Busy, executes each pass respecting declared
// dependencies, and returns to Ready.
//
// Dependencies across workers are resolved by each pass's
// ExecutionState: a pass does not start until every dependency pass
// (tracked in the builder's per-pass execution states, read through
// Builder.globalExecutionState) reads Done.
func (w *Worker) Run(builder *Builder) {
	if len(w.queue) == 0 {
		return
	}
	w.state.Store(int32(WorkerHasJobToDo))
	w.state.Store(int32(WorkerBusy))

	w.cmdLists = w.cmdLists[:0]
	cmdList, err := w.dev.AllocateCommandList(device.CommandListGraphics)
	if err == nil {
		w.cmdLists = append(w.cmdLists, cmdList)
	}

	for i, pass := range w.queue {
		w.waitForDependencies(builder, pass)
		w.exec[i].Store(int32(ExecutionInProgress))
		builder.executePass(pass, cmdList)
		w.exec[i].Store(int32(ExecutionDone))
	}

	w.state.Store(int32(WorkerReady))
}

// waitForDependencies spin-waits (with a scheduler yield) until every
// declared dependency of pass has reached Done, reading state with
// acquire semantics.
func (w *Worker) waitForDependencies(builder *Builder, pass PassHandle) {
	for _, dep := range builder.Dependencies(pass) {
		for builder.globalExecutionState(dep) != ExecutionDone {
			runtime.Gosched()
		}
	}
}

// WaitUntilReady spin-waits until the worker has returned to Ready.
func (w *Worker) WaitUntilReady() {
	for w.State() != WorkerReady {
		runtime.Gosched()
	}
}

// Shutdown cooperatively stops the worker: an atomic store of
// WaitingShutdown into its state word.
func (w *Worker) Shutdown() {
	w.state.Store(int32(WorkerWaitingShutdown))
}

// executePass invokes a declared pass's execute callback and records its
// global execution state so cross-worker dependents can observe
// completion.
func (b *Builder) executePass(p PassHandle, cmdList device.Handle) {
	rec := b.pass(p)
	if b.globalExec == nil {
		b.globalExec = make(map[PassHandle]*atomic.Int32)
	}
	state, ok := b.globalExec[p]
	if !ok {
		state = &atomic.Int32{}
		b.globalExec[p] = state
	}
	state.Store(int32(ExecutionInProgress))
	if rec.execute != nil {
		rec.execute(cmdList)
	}
	state.Store(int32(ExecutionDone))
}

func (b *Builder) globalExecutionState(p PassHandle) ExecutionState {
	if b.globalExec == nil {
		return ExecutionPending
	}
	state, ok := b.globalExec[p]
	if !ok {
		return ExecutionPending
	}
	return ExecutionState(state.Load())
}
