// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"image"
	"log/slog"
	"math"
	"regexp"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// varRegexp matches $NAME tokens in dimension expressions.
var varRegexp = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// compiled is a dimension expression with its $ tokens
// replaced by identifiers, ready to run.
type compiled struct {
	program *vm.Program
	names   []string
	err     error
}

var (
	compiledMu    sync.Mutex
	compiledCache = map[string]*compiled{}

	// failed records expressions already logged as failing.
	failed sync.Map
)

func ident(name string) string { return "v_" + name }

func compileDimension(exp string) *compiled {
	compiledMu.Lock()
	defer compiledMu.Unlock()
	if c, ok := compiledCache[exp]; ok {
		return c
	}
	c := &compiled{}
	seen := map[string]bool{}
	src := varRegexp.ReplaceAllStringFunc(exp, func(tok string) string {
		name := tok[1:]
		if !seen[name] {
			seen[name] = true
			c.names = append(c.names, name)
		}
		return ident(name)
	})
	c.program, c.err = expr.Compile(src)
	compiledCache[exp] = c
	return c
}

// EvalDimension evaluates a pass dimension expression such as
// "$WIDTH/2". $WIDTH and $HEIGHT are the base render size, and any
// other $NAME token is the value returned by lookup, or 0 if lookup
// does not know it. The result is rounded to the nearest non-negative
// integer. It returns false if the expression cannot be evaluated to a
// number, in which case the base size should be used.
func EvalDimension(exp string, base image.Point, lookup func(name string) (float64, bool)) (int, bool) {
	c := compileDimension(exp)
	if c.err != nil {
		logFailure(exp, c.err)
		return 0, false
	}
	env := make(map[string]any, len(c.names))
	for _, name := range c.names {
		v := 0.0
		switch name {
		case "WIDTH":
			v = float64(base.X)
		case "HEIGHT":
			v = float64(base.Y)
		default:
			if lookup != nil {
				if lv, ok := lookup(name); ok {
					v = lv
				}
			}
		}
		env[ident(name)] = v
	}
	out, err := expr.Run(c.program, env)
	if err != nil {
		logFailure(exp, err)
		return 0, false
	}
	var f float64
	switch x := out.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		logFailure(exp, nil)
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		logFailure(exp, nil)
		return 0, false
	}
	return max(int(math.Round(f)), 0), true
}

func logFailure(exp string, err error) {
	if _, loaded := failed.LoadOrStore(exp, true); loaded {
		return
	}
	slog.Debug("isf: dimension expression not evaluated, using base size", "expr", exp, "err", err)
}

// PassSize returns the size of a pass given its declaration,
// the base render size and a lookup for numeric inputs.
// Any dimension that is empty or fails to evaluate uses the base size,
// and each dimension is at least 1.
func PassSize(pd *PassDecl, base image.Point, lookup func(name string) (float64, bool)) image.Point {
	sz := base
	if pd.Width != "" {
		if w, ok := EvalDimension(pd.Width, base, lookup); ok {
			sz.X = w
		}
	}
	if pd.Height != "" {
		if h, ok := EvalDimension(pd.Height, base, lookup); ok {
			sz.Y = h
		}
	}
	sz.X = max(sz.X, 1)
	sz.Y = max(sz.Y, 1)
	return sz
}
