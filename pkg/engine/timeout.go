package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/stairkit/pkg/params"
)

// EvalTimeout is the default limit for evaluating one script.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine timeout.
	ErrTimeout = errors.New("script evaluation timed out")
	// ErrSuperseded is returned to a caller whose script finished after a
	// newer Evaluate call on the same engine had started.
	ErrSuperseded = errors.New("script evaluation superseded by a newer request")
)

// evalResult carries the outcome of one script run back to Evaluate.
type evalResult struct {
	bundle *params.Bundle
	errors []EvalError
	err    error
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return EvalTimeout
}

// wait blocks for the run started as generation gen. A run that overstays
// the timeout is abandoned; its goroutine finishes on its own and the
// buffered channel absorbs the late result.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*params.Bundle, []EvalError, error) {
	limit := e.timeout()
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.bundle, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
