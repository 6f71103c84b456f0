package framegraph

import (
	"runtime"
	"sync/atomic"

	"github.com/duskengine/render/device"
)

// DispatcherState is the dispatcher's explicit state, held in an atomic
// word: Ready→HasJobToDo is a CAS, the other transitions are atomic stores.
type DispatcherState int32

const (
	DispatcherReady DispatcherState = iota
	DispatcherHasJobToDo
	DispatcherWaitingJobCompletion
	DispatcherWaitingShutdown
)

// PerViewData and VectorBufferData are the per-frame uniform payloads
// handed to Dispatch. Dispatch records them on the Scheduler; it does not
// write them into any device buffer.
type PerViewData struct {
	ViewProjection [16]float32
	CameraPosition [3]float32
	DeltaTime      float32
}

type VectorBufferData struct {
	Vectors []float32
}

// Scheduler owns the dispatcher state machine and N render-thread
// workers. Scheduling uses sync/atomic state words with explicit states,
// not channels. No goroutines or OS threads are started: Dispatch runs on
// the caller's goroutine and runs each worker's queue synchronously, one
// worker after another in index order.
type Scheduler struct {
	dev     device.Device
	workers []*Worker

	state       atomic.Int32
	enqueued    []PassHandle
	builder     *Builder
	resources   *Resources

	lastPerView PerViewData
	lastVectors VectorBufferData
}

// NewScheduler constructs a Scheduler with numWorkers render-thread
// workers, backed by dev for command-list allocation and submission.
func NewScheduler(dev device.Device, builder *Builder, resources *Resources, numWorkers int) *Scheduler {
	s := &Scheduler{dev: dev, builder: builder, resources: resources}
	s.state.Store(int32(DispatcherReady))
	for i := 0; i < numWorkers; i++ {
		s.workers = append(s.workers, newWorker(i, dev))
	}
	return s
}

// State returns the dispatcher's current state.
func (s *Scheduler) State() DispatcherState { return DispatcherState(s.state.Load()) }

// AddRenderPass enqueues a declared pass for the next dispatch.
func (s *Scheduler) AddRenderPass(p PassHandle) { s.enqueued = append(s.enqueued, p) }

// AddAsyncComputeRenderPass is aliased to AddRenderPass until a
// dedicated async compute queue is wired to a backend.
func (s *Scheduler) AddAsyncComputeRenderPass(p PassHandle) { s.AddRenderPass(p) }

// IsReady reports whether the dispatcher is idle and ready for the next
// dispatch call.
func (s *Scheduler) IsReady() bool { return s.State() == DispatcherReady }

// Dispatch runs one frame: records perView and vectors, submits an empty
// copy command list ahead of the workers' lists (no buffer contents are
// written to the device), splits enqueued passes across workers, runs
// them until they finish, submits
// their command lists in worker-index order, and presents. Calling
// Dispatch with zero enqueued passes is a no-op that leaves the
// dispatcher in Ready.
func (s *Scheduler) Dispatch(perView PerViewData, vectors VectorBufferData) error {
	if len(s.enqueued) == 0 {
		return nil
	}

	s.lastPerView = perView
	s.lastVectors = vectors

	if !s.state.CompareAndSwap(int32(DispatcherReady), int32(DispatcherHasJobToDo)) {
		return nil
	}
	s.state.Store(int32(DispatcherWaitingJobCompletion))

	if err := s.uploadFrameConstants(); err != nil {
		s.state.Store(int32(DispatcherReady))
		return err
	}

	chunks := chunkPasses(s.enqueued, len(s.workers))
	for i, worker := range s.workers {
		worker.Enqueue(chunks[i])
	}

	var cmdLists []device.Handle
	for _, worker := range s.workers {
		worker.Run(s.builder)
		worker.WaitUntilReady()
		cmdLists = append(cmdLists, worker.CommandLists()...)
	}

	if err := s.dev.SubmitCommandLists(cmdLists); err != nil {
		s.state.Store(int32(DispatcherReady))
		return err
	}
	if err := s.dev.Present(); err != nil {
		s.state.Store(int32(DispatcherReady))
		return err
	}

	s.enqueued = s.enqueued[:0]
	s.state.Store(int32(DispatcherReady))
	return nil
}

func (s *Scheduler) uploadFrameConstants() error {
	copyList, err := s.dev.AllocateCommandList(device.CommandListCopy)
	if err != nil {
		return err
	}
	return s.dev.SubmitCommandLists([]device.Handle{copyList})
}

// WaitPendingFrameCompletion yields until the dispatcher returns to
// Ready. Workers and the dispatcher never block on kernel primitives;
// this spins with a scheduler yield between polls.
func (s *Scheduler) WaitPendingFrameCompletion() {
	for s.State() != DispatcherReady {
		runtime.Gosched()
	}
}

// Shutdown cooperatively stops the dispatcher and every worker: an atomic
// store of WaitingShutdown into each state word.
func (s *Scheduler) Shutdown() {
	s.state.Store(int32(DispatcherWaitingShutdown))
	for _, w := range s.workers {
		w.Shutdown()
	}
}

// chunkPasses assigns passes to n workers in contiguous chunks of
// len(passes)/n + 1, in worker-index order; trailing workers may receive
// no passes (two passes on two workers both go to worker 0).
func chunkPasses(passes []PassHandle, n int) [][]PassHandle {
	out := make([][]PassHandle, n)
	if n == 0 {
		return out
	}
	chunkSize := len(passes)/n + 1
	for i, p := range passes {
		w := i / chunkSize
		if w >= n {
			w = n - 1
		}
		out[w] = append(out[w], p)
	}
	return out
}
