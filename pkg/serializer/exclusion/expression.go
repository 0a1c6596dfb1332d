package exclusion

import (
	"fmt"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// 表达式中可用的变量名。
const (
	VarContext          = "context"
	VarObject           = "object"
	VarPropertyMetadata = "property_metadata"
	VarClassMetadata    = "class_metadata"
)

// Evaluator 为表达式求值能力。
type Evaluator interface {
	Evaluate(expr string, vars map[string]any) (any, error)
}

// Expression 根据 ExcludeIf/ExposeIf 表达式决定是否跳过。
type Expression struct {
	evaluator Evaluator
}

var _ Conditional = (*Expression)(nil)

func NewExpression(evaluator Evaluator) *Expression {
	return &Expression{evaluator: evaluator}
}

func (e *Expression) ShouldSkipClass(meta *metadata.ClassMetadata, ctx Context) (bool, error) {
	if meta.ExcludeIf == "" {
		return false, nil
	}
	return e.eval(meta.ExcludeIf, map[string]any{
		VarContext:       ctx,
		VarObject:        ctx.CurrentObject(),
		VarClassMetadata: meta,
	})
}

func (e *Expression) ShouldSkipProperty(prop *metadata.PropertyMetadata, ctx Context) (bool, error) {
	if prop.ExcludeIf == "" && prop.ExposeIf == "" {
		return false, nil
	}
	vars := map[string]any{
		VarContext:          ctx,
		VarObject:           ctx.CurrentObject(),
		VarPropertyMetadata: prop,
	}
	if prop.ExcludeIf != "" {
		skip, err := e.eval(prop.ExcludeIf, vars)
		if err != nil || skip {
			return skip, err
		}
	}
	if prop.ExposeIf != "" {
		expose, err := e.eval(prop.ExposeIf, vars)
		if err != nil {
			return false, err
		}
		return !expose, nil
	}
	return false, nil
}

func (e *Expression) eval(expr string, vars map[string]any) (bool, error) {
	out, err := e.evaluator.Evaluate(expr, vars)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, merr.WrapErrConfiguration(fmt.Sprintf("expression %q evaluated to %T, want bool", expr, out))
	}
	return b, nil
}
