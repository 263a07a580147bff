package noema

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// -----------------------------------------------------------------------------
// Adapter Functions - wrap functions to create Process processors
// -----------------------------------------------------------------------------

// Do creates a processor from a custom function that can fail.
// This is the easiest way to add custom logic to a cognitive pipeline.
//
// Example:
//
//	normalize := noema.Do("normalize", func(ctx context.Context, p *noema.Process) (*noema.Process, error) {
//	    if p.Problem.IsEmpty() {
//	        return p, errors.New("empty problem")
//	    }
//	    return p, nil
//	})
func Do(name string, fn func(context.Context, *Process) (*Process, error)) pipz.Processor[*Process] {
	return pipz.Apply(pipz.Name(name), fn)
}

// Transform creates a processor from a pure transformation function.
// Use this when your operation cannot fail.
//
// Example:
//
//	tag := noema.Transform("tag", func(ctx context.Context, p *noema.Process) *noema.Process {
//	    p.Note("tagged for review")
//	    return p
//	})
func Transform(name string, fn func(context.Context, *Process) *Process) pipz.Processor[*Process] {
	return pipz.Transform(pipz.Name(name), fn)
}

// Effect creates a processor that performs a side effect without modifying
// the process. Use this for logging, metrics, or other observation.
func Effect(name string, fn func(context.Context, *Process) error) pipz.Processor[*Process] {
	return pipz.Effect(pipz.Name(name), fn)
}

// Mutate creates a processor that conditionally modifies a process.
// The modification is only applied if the predicate returns true.
//
// Example:
//
//	boost := noema.Mutate("boost-confidence",
//	    func(ctx context.Context, p *noema.Process) *noema.Process {
//	        p.Confidence = math.Min(1, p.Confidence+0.1)
//	        return p
//	    },
//	    func(ctx context.Context, p *noema.Process) bool {
//	        return p.Approach == noema.ApproachAnalogy
//	    },
//	)
func Mutate(name string, fn func(context.Context, *Process) *Process, predicate func(context.Context, *Process) bool) pipz.Processor[*Process] {
	return pipz.Mutate(pipz.Name(name), fn, predicate)
}

// Enrich creates a processor that optionally enhances a process.
// Unlike Do, errors are logged but don't stop the pipeline.
func Enrich(name string, fn func(context.Context, *Process) (*Process, error)) pipz.Processor[*Process] {
	return pipz.Enrich(pipz.Name(name), fn)
}

// -----------------------------------------------------------------------------
// Sequential Connectors - process in order
// -----------------------------------------------------------------------------

// Sequence creates a sequential pipeline of process stages.
// Each stage receives the output of the previous one.
//
// Example:
//
//	pipeline := noema.Sequence("solve",
//	    attendStage,
//	    retrieveStage,
//	    assessStage,
//	)
func Sequence(name string, processors ...pipz.Chainable[*Process]) *pipz.Sequence[*Process] {
	return pipz.NewSequence(pipz.Name(name), processors...)
}

// -----------------------------------------------------------------------------
// Control Flow Connectors - route based on conditions
// -----------------------------------------------------------------------------

// Filter creates a conditional processor that either processes or passes
// through unchanged.
func Filter(name string, predicate func(context.Context, *Process) bool, processor pipz.Chainable[*Process]) *pipz.Filter[*Process] {
	return pipz.NewFilter(pipz.Name(name), predicate, processor)
}

// Switch creates a router that directs a process to different stages.
// The condition function returns a route key.
//
// Example:
//
//	router := noema.Switch("system-router", func(ctx context.Context, p *noema.Process) int {
//	    return p.System
//	})
//	router.AddRoute(1, system1Stage)
//	router.AddRoute(2, system2Stage)
func Switch[K comparable](name string, condition func(context.Context, *Process) K) *pipz.Switch[*Process, K] {
	return pipz.NewSwitch(pipz.Name(name), condition)
}

// -----------------------------------------------------------------------------
// Error Handling Connectors - handle failures gracefully
// -----------------------------------------------------------------------------

// Fallback creates a processor that tries alternatives on failure.
// Each processor is tried in order until one succeeds.
//
// Example:
//
//	resilient := noema.Fallback("solve-resilient",
//	    providerStage,
//	    memoryStage,
//	    heuristicStage,
//	)
func Fallback(name string, processors ...pipz.Chainable[*Process]) *pipz.Fallback[*Process] {
	return pipz.NewFallback(pipz.Name(name), processors...)
}

// Retry creates a processor that retries on failure up to maxAttempts times.
// Immediate retry without delay - for backoff, use Backoff instead.
func Retry(name string, processor pipz.Chainable[*Process], maxAttempts int) *pipz.Retry[*Process] {
	return pipz.NewRetry(pipz.Name(name), processor, maxAttempts)
}

// Backoff creates a processor that retries with exponential backoff.
// Useful for external providers that need time to recover between attempts.
func Backoff(name string, processor pipz.Chainable[*Process], maxAttempts int, baseDelay time.Duration) *pipz.Backoff[*Process] {
	return pipz.NewBackoff(pipz.Name(name), processor, maxAttempts, baseDelay)
}

// Timeout creates a processor that enforces a time limit on execution.
// If the timeout expires, the operation is canceled and an error is returned.
func Timeout(name string, processor pipz.Chainable[*Process], duration time.Duration) *pipz.Timeout[*Process] {
	return pipz.NewTimeout(pipz.Name(name), processor, duration)
}

// Handle creates a processor that handles errors without stopping the
// pipeline. When the primary processor fails, the error handler is invoked
// with a pipz.Error[*Process] carrying full error context.
func Handle(name string, processor pipz.Chainable[*Process], errorHandler pipz.Chainable[*pipz.Error[*Process]]) *pipz.Handle[*Process] {
	return pipz.NewHandle(pipz.Name(name), processor, errorHandler)
}

// -----------------------------------------------------------------------------
// Resource Protection Connectors
// -----------------------------------------------------------------------------

// RateLimiter creates a processor that enforces rate limits.
// Useful in front of rate-limited reasoning providers.
//
// Example:
//
//	limited := noema.RateLimiter("provider-limit", 10, 2) // 10/sec, burst 2
//	limited.SetProcessor(providerStage)
func RateLimiter(name string, requestsPerSecond float64, burst int) *pipz.RateLimiter[*Process] {
	return pipz.NewRateLimiter[*Process](pipz.Name(name), requestsPerSecond, burst)
}

// CircuitBreaker creates a processor that prevents cascade failures.
// Opens the circuit after failureThreshold consecutive failures.
func CircuitBreaker(name string, processor pipz.Chainable[*Process], failureThreshold int, resetTimeout time.Duration) *pipz.CircuitBreaker[*Process] {
	return pipz.NewCircuitBreaker(pipz.Name(name), processor, failureThreshold, resetTimeout)
}

// -----------------------------------------------------------------------------
// Parallel Connectors - require *Process to implement pipz.Cloner[*Process]
// (see process.go Clone())
// -----------------------------------------------------------------------------

// Concurrent runs all processors in parallel and returns the original
// process. Each processor receives an isolated clone. Use the reducer to
// aggregate results.
func Concurrent(name string, reducer func(original *Process, results map[pipz.Name]*Process, errors map[pipz.Name]error) *Process, processors ...pipz.Chainable[*Process]) *pipz.Concurrent[*Process] {
	return pipz.NewConcurrent(pipz.Name(name), reducer, processors...)
}

// Race runs all processors in parallel and returns the first successful
// result. Useful when several solution paths can answer the same problem.
func Race(name string, processors ...pipz.Chainable[*Process]) *pipz.Race[*Process] {
	return pipz.NewRace(pipz.Name(name), processors...)
}

// WorkerPool creates a bounded parallel executor with a fixed number of
// workers.
func WorkerPool(name string, workers int, processors ...pipz.Chainable[*Process]) *pipz.WorkerPool[*Process] {
	return pipz.NewWorkerPool(pipz.Name(name), workers, processors...)
}
