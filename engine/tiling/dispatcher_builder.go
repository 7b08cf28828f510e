package tiling

import "time"

// DispatcherBuilderOption is a function that configures a Dispatcher during construction.
type DispatcherBuilderOption func(*dispatcherImpl)

// WithWorkers is an option builder that sets how many tiles run concurrently.
// Values below 1 are ignored.
//
// Parameters:
//   - workers: the worker pool size
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the option to a dispatcherImpl
func WithWorkers(workers int) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		if workers > 0 {
			d.workers = workers
		}
	}
}

// WithQueueSize is an option builder that sets the task queue depth.
//
// Parameters:
//   - size: pending tiles buffered before SubmitTask blocks
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the option to a dispatcherImpl
func WithQueueSize(size int) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// WithLaneWorkers is an option builder that sets how many goroutines run the
// lanes of one work group phase. 1 runs lanes sequentially inside the tile
// task, which is the fastest setting when there are many tiles.
//
// Parameters:
//   - n: goroutines per phase
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the option to a dispatcherImpl
func WithLaneWorkers(n int) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		if n > 0 {
			d.laneWorkers = n
		}
	}
}

// WithIdleTimeout is an option builder that sets the worker idle timeout.
//
// Parameters:
//   - timeout: how long an idle worker lingers
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the option to a dispatcherImpl
func WithIdleTimeout(timeout time.Duration) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		if timeout > 0 {
			d.idleTimeout = timeout
		}
	}
}
