// Package engine evaluates tinsnip part scripts. A script is a zygomys Lisp
// program run in a sandbox; its builtins describe the sheet, the profile
// sketch, face sketches, flanges and folds, and evaluation yields the
// part.Snapshot the rest of the engine computes from.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/tinsnip/pkg/part"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or a script that
// does not describe a part.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is advisory output from a successful evaluation.
type EvalWarning struct {
	Feature string
	Message string
}

func (w EvalWarning) String() string {
	if w.Feature == "" {
		return w.Message
	}
	return w.Feature + ": " + w.Message
}

// EvalResult bundles the full output of an evaluation. Snapshot is nil
// whenever Errors is non-empty.
type EvalResult struct {
	Snapshot *part.Snapshot
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the script produced a snapshot.
func (r *EvalResult) OK() bool { return r != nil && r.Snapshot != nil && len(r.Errors) == 0 }

// Config holds the material defaults scripts fall back on and the hard
// evaluation time limit.
type Config struct {
	Thickness  float64
	KFactor    float64
	BendRadius float64
	Timeout    time.Duration
}

// DefaultConfig is 1mm sheet, K 0.44, 1mm inner radius, 5s limit.
func DefaultConfig() Config {
	return Config{Thickness: 1, KFactor: 0.44, BendRadius: 1, Timeout: DefaultTimeout}
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment so the same
// source always yields the same snapshot.
type Engine struct {
	cfg        Config
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine with DefaultConfig.
func NewEngine() *Engine {
	return New(DefaultConfig())
}

// New creates an Engine with cfg. A zero timeout means DefaultTimeout.
func New(cfg Config) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Engine{cfg: cfg}
}

// Evaluate runs source and builds a snapshot from it.
//
// Return semantics:
//   - On success: result with Snapshot set, nil error
//   - On parse/eval failure or an incomplete part: result with Errors, nil error
//   - On fatal failure (timeout, panic, superseded): nil result, error
func (e *Engine) Evaluate(source string) (*EvalResult, error) {
	gen := e.begin()
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()
		ch <- outcome{result: e.evaluate(source)}
	}()

	return e.await(ch, gen)
}

// evaluate performs the zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) *EvalResult {
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Errors: []EvalError{{Message: "empty script: define a (profile ...)"}}}
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(e.cfg)
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}

	snap, errs := b.snapshot()
	if len(errs) > 0 {
		return &EvalResult{Errors: errs, Warnings: b.warnings}
	}
	return &EvalResult{Snapshot: &snap, Warnings: b.warnings}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
