// Package expression evaluates the small expression language used in diagram
// templates: "{{ expr }}" placeholders, directive guards and loop sources.
//
// Expressions are compiled with expr-lang against the evaluation environment,
// so a reference to a name missing from the environment is a compile error.
// Supported operators are the ones expr-lang provides: arithmetic, comparison,
// membership ("in"), logical operators and the "cond ? a : b" ternary. A
// ternary condition that is not a bool is tested with the template truthiness
// rules, so "n ? 1 : 2" yields 2 for n == 0. The same rules are available as
// the function truthy(x).
package expression

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
)

// ErrUndefined indicates an expression referenced a name that is not defined
// in its environment.
var ErrUndefined = errors.New("undefined variable")

// Error represents a failure compiling or running one expression.
type Error struct {
	Expr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var placeholderRe = regexp.MustCompile(`(?s)\{\{\s*(.+?)\s*\}\}`)

var truthyFunc = expr.Function(
	"truthy",
	func(params ...any) (any, error) {
		return Truthy(params[0]), nil
	},
	new(func(any) bool),
)

// truthyConditions wraps every ternary condition not typed as bool in a call
// to truthy.
type truthyConditions struct{}

func (truthyConditions) Visit(node *ast.Node) {
	c, ok := (*node).(*ast.ConditionalNode)
	if !ok || c.Cond.Type().Kind() == reflect.Bool {
		return
	}
	ast.Patch(&c.Cond, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: "truthy"},
		Arguments: []ast.Node{c.Cond},
	})
}

// HasPlaceholders reports whether s contains at least one {{ }} placeholder.
func HasPlaceholders(s string) bool {
	return placeholderRe.MatchString(s)
}

// Placeholders returns the expression source of every placeholder in s.
func Placeholders(s string) []string {
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// Eval compiles src against env and runs it.
func Eval(src string, env map[string]any) (any, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, &Error{Expr: src, Err: errors.New("empty expression")}
	}
	if env == nil {
		env = map[string]any{}
	}
	program, err := expr.Compile(src, expr.Env(env), truthyFunc, expr.Patch(truthyConditions{}))
	if err != nil {
		if strings.Contains(err.Error(), "unknown name") {
			err = fmt.Errorf("%w: %v", ErrUndefined, err)
		}
		return nil, &Error{Expr: src, Err: err}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, &Error{Expr: src, Err: err}
	}
	return out, nil
}

// EvalBool evaluates src and requires a boolean result.
func EvalBool(src string, env map[string]any) (bool, error) {
	v, err := Eval(src, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &Error{Expr: src, Err: fmt.Errorf("guard yields %T, expected bool", v)}
	}
	return b, nil
}

// EvalList evaluates src and requires a list result.
func EvalList(src string, env map[string]any) ([]any, error) {
	v, err := Eval(src, env)
	if err != nil {
		return nil, err
	}
	list, ok := AsList(v)
	if !ok {
		return nil, &Error{Expr: src, Err: fmt.Errorf("loop source yields %T, expected a list", v)}
	}
	return list, nil
}

// Interpolate replaces every placeholder in text with its formatted value.
func Interpolate(text string, env map[string]any) (string, error) {
	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		if firstErr != nil {
			return m
		}
		src := placeholderRe.FindStringSubmatch(m)[1]
		v, err := Eval(src, env)
		if err != nil {
			firstErr = err
			return m
		}
		return Format(v)
	})
	if firstErr != nil {
		return text, firstErr
	}
	return out, nil
}

// Truthy applies the template truthiness rules: booleans as-is, numbers are
// false only at zero, strings, lists and maps are false only when empty, nil
// is false and anything else is true.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	default:
		return true
	}
}

// AsList converts any slice or array to []any. Strings are not lists.
func AsList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Format renders a value as shape text.
func Format(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		return FormatFloat(vv)
	case float32:
		return FormatFloat(float64(vv))
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return fmt.Sprint(v)
	}
}

// FormatFloat renders f with the shortest representation that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFloat coerces a number, or a string holding a number, to float64.
func ToFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%v is not a finite number", f)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%T is not a number", v)
	}
}

// ParseValue returns an int64 or float64 when s holds a number and s itself
// otherwise.
func ParseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
