package manifest

// This file defines the evaluation environment of argument expressions.
// Builtins are created once per process and cloned into every manifest so
// that manifest vars may shadow them.

import (
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/codeblock/block"
)

// fragmentFunc is the signature of the fragment() builtin.
type fragmentFunc = func(name string) (*block.Fragment, error)

const fragmentKey = "fragment"

//nolint:gochecknoglobals
var (
	builtinOnce sync.Once
	builtins    map[string]any
)

func makeBuiltins() map[string]any {
	builtinOnce.Do(func() {
		builtins = map[string]any{
			"mung": map[string]any{
				"prefix": mungPrefix,
			},
		}
	})

	return maps.Clone(builtins)
}

// Builtins returns the builtin values visible to expressions, other than
// the env and fragment functions.
func Builtins() map[string]any {
	return makeBuiltins()
}

// BuiltinKeys returns the names of all builtins visible to expressions.
func BuiltinKeys() []string {
	env := makeBuiltins()

	keys := make([]string, 0, len(env)+2)
	for k := range env {
		keys = append(keys, k)
	}

	return append(keys, "env", fragmentKey)
}

// mungPrefix prepends items to the PATH-style list, dropping duplicates.
func mungPrefix(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}

// processEnvMap converts a "KEY=VALUE" list to a map.
// If environ is nil, os.Environ() is used.
func processEnvMap(environ []string) map[string]string {
	if environ == nil {
		environ = os.Environ()
	}

	result := make(map[string]string, len(environ))

	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

// makeEnv returns the expression environment for the given vars.
// The fragment builtin is a placeholder replaced at build time.
func makeEnv(vars map[string]any, environ []string) map[string]any {
	processEnv := processEnvMap(environ)

	env := makeBuiltins()
	env["env"] = func(key string) string { return processEnv[key] }
	env[fragmentKey] = fragmentFunc(func(name string) (*block.Fragment, error) {
		return nil, ErrUnknownFragment.With(slog.String("name", name))
	})

	maps.Copy(env, vars)

	return env
}

// refCollector records the names passed as string literals to fragment().
type refCollector struct {
	names []string
}

// Visit implements ast.Visitor.
func (c *refCollector) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok || len(call.Arguments) != 1 {
		return
	}

	if id, ok := call.Callee.(*ast.IdentifierNode); !ok || id.Value != fragmentKey {
		return
	}

	if lit, ok := call.Arguments[0].(*ast.StringNode); ok {
		c.names = append(c.names, lit.Value)
	}
}

// compileArgs compiles every argument expression of step against env and
// returns the fragment names referenced by string literal.
func compileArgs(step *Step, env map[string]any) ([]string, error) {
	var refs refCollector

	step.programs = make([]*vm.Program, len(step.Args))

	for i, src := range step.Args {
		program, err := expr.Compile(src, expr.Env(env), expr.Patch(&refs))
		if err != nil {
			return nil, ErrExprCompile.Wrap(err).With(
				slog.Int("arg", i),
				slog.String("source", src),
			)
		}

		step.programs[i] = program
	}

	return refs.names, nil
}
