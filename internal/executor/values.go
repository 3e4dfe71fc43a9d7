package executor

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/graphcypher/internal/language"
	schema "github.com/hanpama/graphcypher/internal/schema"
)

// builtinCoercers coerce input values of the built-in scalars. Other named
// types pass through unchanged.
var builtinCoercers = map[string]func(any) (any, error){
	"Int":     coerceInt,
	"Float":   coerceFloat,
	"String":  coerceString,
	"Boolean": coerceBoolean,
	"ID":      coerceID,
}

// coerceVariableValues applies defaults and input coercion to the provided
// variables. Undeclared variables are ignored.
func coerceVariableValues(op *language.OperationDefinition, provided map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		v, ok := provided[def.Variable]
		switch {
		case !ok && def.DefaultValue != nil:
			v = language.ValueOf(def.DefaultValue, nil)
		case !ok && def.Type.NonNull:
			return nil, fmt.Errorf("variable $%s of required type %s was not provided", def.Variable, def.Type)
		case !ok:
			continue
		}
		cv, err := coerceInput(v, typeRefOf(def.Type))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s: %w", def.Variable, def.Type, err)
		}
		out[def.Variable] = cv
	}
	return out, nil
}

// arguments coerces the arguments of node against def. A variable that was
// not provided leaves its argument absent so the declared default applies.
// Coercion failures are reported at path and the argument is dropped.
func (r *request) arguments(def *schema.Field, node *language.Field, path Path) map[string]any {
	out := make(map[string]any, len(def.Arguments))
	for _, argDef := range def.Arguments {
		arg := node.Arguments.ForName(argDef.Name)
		if arg != nil && arg.Value.Kind == language.Variable {
			if _, ok := r.variables[arg.Value.Raw]; !ok {
				arg = nil
			}
		}
		if arg == nil {
			switch {
			case argDef.DefaultValue != nil:
				out[argDef.Name] = argDef.DefaultValue
			case argDef.Type.IsNonNull():
				r.fail(path, fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name))
			}
			continue
		}
		v, err := coerceInput(language.ValueOf(arg.Value, r.variables), argDef.Type)
		if err != nil {
			r.fail(path, fmt.Sprintf("argument '%s' cannot be coerced: %v", argDef.Name, err))
			continue
		}
		out[argDef.Name] = v
	}
	return out
}

func coerceInput(v any, t *schema.TypeRef) (any, error) {
	if t.IsNonNull() {
		if v == nil {
			return nil, fmt.Errorf("null for non-null type %s", t.GetNamedType())
		}
		return coerceInput(v, t.Unwrap())
	}
	if v == nil {
		return nil, nil
	}
	if t.IsList() {
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceInput(item, t.Unwrap())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil
	}
	if coerce, ok := builtinCoercers[t.GetNamedType()]; ok {
		return coerce(v)
	}
	return v, nil
}

func typeRefOf(t *language.Type) *schema.TypeRef {
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefOf(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}

func coerceInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= math.MaxInt32 {
			return int(x), nil
		}
	}
	return nil, fmt.Errorf("Int cannot represent %v", v)
}

func coerceFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return nil, fmt.Errorf("Float cannot represent %v", v)
}

func coerceString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, fmt.Errorf("String cannot represent %v", v)
}

func coerceBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent %v", v)
}

func coerceID(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatFloat(x, 'f', 0, 64), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent %v", v)
}
