package engine

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout is the hard limit for a single evaluation.
const DefaultTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned to an evaluation that finished after a
	// newer one started. Editors evaluating on every keystroke can ignore it.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")

	// ErrTimeout is returned when a script runs longer than the timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")
)

// outcome carries one evaluation's result back from its goroutine.
type outcome struct {
	result *EvalResult
	err    error
}

// begin starts a new generation and returns it.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) isLatest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await waits for the outcome of generation gen. On timeout the goroutine
// keeps running; ch is buffered so its late send never blocks.
func (e *Engine) await(ch <-chan outcome, gen uint64) (*EvalResult, error) {
	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		if !e.isLatest(gen) {
			return nil, ErrSuperseded
		}
		return o.result, o.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.cfg.Timeout)
	}
}
