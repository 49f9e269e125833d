package alloy

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// CallConstructor invokes an arbitrary N-ary constructor function value with
// positional args, the runtime counterpart to the constructor convention
// codegen assumes: every annotated type has a func New<Type>(...) that
// returns either the instance alone or (instance, error).
//
// Generated code never knows the constructor's static parameter types (the
// scanner only captures dependency expressions, not Go types), so this is
// the one place the runtime falls back to reflection to bridge that gap.
func CallConstructor(fn any, args []any) (any, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("alloy: constructor value is not a function (got %T)", fn)
	}

	ft := fv.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, fmt.Errorf("alloy: constructor %s expects at least %d args, got %d", ft, ft.NumIn()-1, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("alloy: constructor %s expects %d args, got %d", ft, ft.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		paramType := ft.In(i)
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			paramType = ft.In(ft.NumIn() - 1).Elem()
		}
		in[i] = argValue(a, paramType)
	}

	out := fv.Call(in)

	switch len(out) {
	case 1:
		return out[0].Interface(), nil
	case 2:
		if !out[1].Type().Implements(errorType) {
			return nil, fmt.Errorf("alloy: constructor %s's second return value must be error, got %s", ft, out[1].Type())
		}
		var err error
		if !out[1].IsNil() {
			err, _ = out[1].Interface().(error)
		}
		return out[0].Interface(), err
	default:
		return nil, fmt.Errorf("alloy: constructor %s must return (T) or (T, error), got %d values", ft, len(out))
	}
}

// argValue coerces an untyped constructor argument to the reflect.Value a
// parameter slot expects, so a nil interface{} lands as a typed nil for
// pointer/interface/slice/map/chan/func parameters instead of panicking.
func argValue(a any, paramType reflect.Type) reflect.Value {
	if a == nil {
		return reflect.Zero(paramType)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(paramType) {
		return v
	}
	if v.Type().ConvertibleTo(paramType) {
		return v.Convert(paramType)
	}
	return v
}
