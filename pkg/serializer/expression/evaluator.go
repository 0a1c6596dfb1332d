// Package expression 基于 expr-lang 为条件排除提供表达式求值。
package expression

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/serializer/exclusion"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// Evaluator 编译并执行表达式，编译结果按表达式文本缓存。
//
// 表达式中未定义的变量求值为 nil，而不是编译失败。
type Evaluator struct {
	log.Binder

	programs sync.Map // string -> *vm.Program
	funcs    []expr.Option
}

var _ exclusion.Evaluator = (*Evaluator)(nil)

// NewEvaluator 创建求值器，可附加 expr.Function 等编译选项。
func NewEvaluator(opts ...expr.Option) *Evaluator {
	e := &Evaluator{funcs: opts}
	e.SetComponent("expression_evaluator")
	return e
}

func (e *Evaluator) Evaluate(src string, vars map[string]any) (any, error) {
	prg, err := e.compile(src)
	if err != nil {
		return nil, err
	}
	out, err := vm.Run(prg, vars)
	if err != nil {
		e.Logger().RatedDebug(1, "expression evaluation failed", zap.String("expr", src), zap.Error(err))
		return nil, merr.WrapErrConfiguration(err.Error(), src)
	}
	return out, nil
}

func (e *Evaluator) compile(src string) (*vm.Program, error) {
	if cached, ok := e.programs.Load(src); ok {
		return cached.(*vm.Program), nil
	}
	opts := append([]expr.Option{expr.AllowUndefinedVariables()}, e.funcs...)
	prg, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, merr.WrapErrParse(src, 0, err.Error())
	}
	actual, _ := e.programs.LoadOrStore(src, prg)
	return actual.(*vm.Program), nil
}
