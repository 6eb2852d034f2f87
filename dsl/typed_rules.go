package dsl

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/i18n"
)

type rule struct {
	name string
	fn   func(context.Context, any) skemabind.Issues
}

func runRules(ctx context.Context, v any, rules []rule) skemabind.Issues {
	var iss skemabind.Issues
	for _, r := range rules {
		got := r.fn(ctx, v)
		if len(got) == 0 {
			continue
		}
		iss = skemabind.AppendIssues(iss, got...)
		if skemabind.IsFailFast(ctx) {
			return iss
		}
	}
	return iss
}

func issue(code string, params map[string]any) skemabind.Issues {
	return skemabind.Issues{skemabind.IssueAt(skemabind.RootPath(), code, "", params)}
}

// Min rejects numbers below n.
func (f *Field) Min(n float64) *Field {
	f.min = &n
	f.rules = append(f.rules, rule{name: "min", fn: func(_ context.Context, v any) skemabind.Issues {
		if x, ok := toFloat(v); ok && x < n {
			return issue(skemabind.CodeTooSmall, map[string]any{"min": n, "got": v})
		}
		return nil
	}})
	return f
}

// Max rejects numbers above n.
func (f *Field) Max(n float64) *Field {
	f.max = &n
	f.rules = append(f.rules, rule{name: "max", fn: func(_ context.Context, v any) skemabind.Issues {
		if x, ok := toFloat(v); ok && x > n {
			return issue(skemabind.CodeTooBig, map[string]any{"max": n, "got": v})
		}
		return nil
	}})
	return f
}

// MinLen rejects strings with fewer runes, and lists or maps with fewer
// elements, than n.
func (f *Field) MinLen(n int) *Field {
	f.minLen = &n
	f.rules = append(f.rules, rule{name: "minLen", fn: func(_ context.Context, v any) skemabind.Issues {
		if l, ok := length(v); ok && l < n {
			return issue(skemabind.CodeTooShort, map[string]any{"min": n, "got": l})
		}
		return nil
	}})
	return f
}

// MaxLen is the upper counterpart of MinLen.
func (f *Field) MaxLen(n int) *Field {
	f.maxLen = &n
	f.rules = append(f.rules, rule{name: "maxLen", fn: func(_ context.Context, v any) skemabind.Issues {
		if l, ok := length(v); ok && l > n {
			return issue(skemabind.CodeTooLong, map[string]any{"max": n, "got": l})
		}
		return nil
	}})
	return f
}

// Pattern requires strings to match the regular expression re.
func (f *Field) Pattern(re string) *Field {
	rx, err := regexp.Compile(re)
	if err != nil {
		f.errs = append(f.errs, fmt.Errorf("pattern %q: %w", re, err))
		return f
	}
	f.pattern = re
	f.rules = append(f.rules, rule{name: "pattern", fn: func(_ context.Context, v any) skemabind.Issues {
		if s, ok := v.(string); ok && !rx.MatchString(s) {
			return issue(skemabind.CodePattern, map[string]any{"pattern": re})
		}
		return nil
	}})
	return f
}

// Enum restricts values to the given set. Numbers compare by value.
func (f *Field) Enum(vals ...any) *Field {
	f.enum = append(f.enum, vals...)
	allowed := append([]any(nil), vals...)
	f.rules = append(f.rules, rule{name: "enum", fn: func(_ context.Context, v any) skemabind.Issues {
		for _, a := range allowed {
			if equalValue(a, v) {
				return nil
			}
		}
		return issue(skemabind.CodeInvalidEnum, map[string]any{"allowed": allowed, "got": v})
	}})
	return f
}

// Expr adds a boolean expression over the coerced value, bound as "value".
//
//	dsl.Int().Expr("value % 2 == 0")
func (f *Field) Expr(src string) *Field {
	prog, err := compileExpr(src, map[string]any{"value": nil})
	if err != nil {
		f.errs = append(f.errs, err)
		return f
	}
	f.rules = append(f.rules, rule{name: src, fn: func(_ context.Context, v any) skemabind.Issues {
		return evalExpr(prog, src, map[string]any{"value": v})
	}})
	return f
}

// Refine adds a custom check. Issues returned by fn are relative to the
// field; other errors are reported as a rule issue.
func (f *Field) Refine(name string, fn func(ctx context.Context, v any) error) *Field {
	f.rules = append(f.rules, rule{name: name, fn: func(ctx context.Context, v any) skemabind.Issues {
		err := fn(ctx, v)
		if err == nil {
			return nil
		}
		if iss, ok := skemabind.AsIssues(err); ok {
			out := make(skemabind.Issues, 0, len(iss))
			for _, it := range iss {
				if it.Rule == "" {
					it.Rule = name
				}
				out = append(out, it)
			}
			return out
		}
		return skemabind.Issues{{Path: "/", Code: skemabind.CodeRule, Message: err.Error(), Rule: name, Cause: err}}
	}})
	return f
}

func compileExpr(src string, env map[string]any) (*vm.Program, error) {
	prog, err := expr.Compile(src, expr.Env(env), expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expr %q: %w", src, err)
	}
	return prog, nil
}

func evalExpr(prog *vm.Program, name string, env map[string]any) skemabind.Issues {
	out, err := expr.Run(prog, env)
	if err != nil {
		return skemabind.Issues{{Path: "/", Code: skemabind.CodeRule, Message: i18n.T(skemabind.CodeRule, nil), Rule: name, Cause: err}}
	}
	if ok, _ := out.(bool); !ok {
		return skemabind.Issues{{Path: "/", Code: skemabind.CodeRule, Message: i18n.T(skemabind.CodeRule, nil), Rule: name}}
	}
	return nil
}

func length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func equalValue(a, b any) bool {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}
