package language

import "strconv"

// ValueOf converts an AST value to a plain Go value. Variable references are
// looked up in variables; unknown variables become nil. Ints decode to int
// and floats to float64; enum values decode to their name.
func ValueOf(value *Value, variables map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		if v, ok := variables[value.Raw]; ok {
			return v
		}
		return nil
	case IntValue:
		iv, err := strconv.ParseInt(value.Raw, 10, 64)
		if err != nil {
			fv, _ := strconv.ParseFloat(value.Raw, 64)
			return fv
		}
		return int(iv)
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue, EnumValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case NullValue:
		return nil
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueOf(c.Value, variables)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = ValueOf(f.Value, variables)
		}
		return m
	default:
		return nil
	}
}
