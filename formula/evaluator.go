// Package formula estimates damage and healing magnitudes from author-written
// expressions such as "a.atk * 4 - b.def * 2".
package formula

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/tactician/model"
)

// DefaultMagnitude is returned whenever an expression can't be evaluated.
const DefaultMagnitude = 100.0

// Stats is the read-only attribute view an expression sees as `a` or `b`.
type Stats struct {
	MHP float64 `expr:"mhp"`
	MMP float64 `expr:"mmp"`
	ATK float64 `expr:"atk"`
	DEF float64 `expr:"def"`
	MAT float64 `expr:"mat"`
	MDF float64 `expr:"mdf"`
	AGI float64 `expr:"agi"`
	LUK float64 `expr:"luk"`
	HP  float64 `expr:"hp"`
	MP  float64 `expr:"mp"`
	TP  float64 `expr:"tp"`
}

// Env is the complete expression environment. Only data is exposed; there
// are no callable methods.
type Env struct {
	A Stats     `expr:"a"`
	B Stats     `expr:"b"`
	V []float64 `expr:"v"`
}

// StatsOf snapshots a combatant's attributes. A nil combatant yields zeros.
func StatsOf(c *model.Combatant) Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		MHP: c.Param(model.ParamMHP),
		MMP: c.Param(model.ParamMMP),
		ATK: c.Param(model.ParamATK),
		DEF: c.Param(model.ParamDEF),
		MAT: c.Param(model.ParamMAT),
		MDF: c.Param(model.ParamMDF),
		AGI: c.Param(model.ParamAGI),
		LUK: c.Param(model.ParamLUK),
		HP:  float64(c.HP),
		MP:  float64(c.MP),
		TP:  float64(c.TP),
	}
}

var errNotNumeric = errors.New("result is not numeric")

// Evaluator compiles expressions once and reuses the bytecode.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
	failed   map[string]error
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		programs: make(map[string]*vm.Program),
		failed:   make(map[string]error),
	}
}

// Evaluate never fails: malformed expressions and runtime errors yield
// DefaultMagnitude. Negative results are floored at 0.
func (e *Evaluator) Evaluate(src string, a, b Stats, vars []float64) float64 {
	v, err := e.Eval(src, Env{A: a, B: b, V: vars})
	if err != nil {
		slog.Debug("formula fell back to default", "formula", src, "error", err)
		return DefaultMagnitude
	}
	return math.Max(v, 0)
}

// Eval is the error-returning form used by Evaluate and by tests.
func (e *Evaluator) Eval(src string, env Env) (float64, error) {
	prog, err := e.compile(src)
	if err != nil {
		return 0, err
	}
	out, err := vm.Run(prog, env)
	if err != nil {
		return 0, fmt.Errorf("run %q: %w", src, err)
	}
	v, err := toFloat(out)
	if err != nil {
		return 0, fmt.Errorf("run %q: %w", src, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("run %q: non-finite result", src)
	}
	return v, nil
}

func (e *Evaluator) compile(src string) (*vm.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[src]
	failure := e.failed[src]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}
	if failure != nil {
		return nil, failure
	}

	prog, err := expr.Compile(src,
		expr.Env(Env{}),
		expr.DisableAllBuiltins(),
		expr.EnableBuiltin("max"),
		expr.EnableBuiltin("min"),
		expr.EnableBuiltin("abs"),
		expr.EnableBuiltin("floor"),
		expr.EnableBuiltin("ceil"),
		expr.EnableBuiltin("round"),
	)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("compile %q: %w", src, err)
		e.failed[src] = err
		return nil, err
	}
	e.programs[src] = prog
	return prog, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errNotNumeric
}
