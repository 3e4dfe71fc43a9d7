package cypher

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	schema "github.com/hanpama/graphcypher/internal/schema"
)

// EncodeMap renders args as a Cypher literal map with keys in sorted order.
// An empty map renders as "{}".
func EncodeMap(args map[string]any) (string, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		v, err := EncodeValue(args[k])
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(encodeKey(k))
		b.WriteString(": ")
		b.WriteString(v)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// EncodeValue renders a single Go value as a Cypher literal.
func EncodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(x), nil
	case string:
		return encodeString(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(x).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10), nil
	case float32:
		return encodeFloat(float64(x))
	case float64:
		return encodeFloat(x)
	case time.Time:
		return "datetime(" + encodeString(x.Format(time.RFC3339Nano)) + ")", nil
	case map[string]any:
		return EncodeMap(x)
	case []any:
		return encodeList(x)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return encodeList(items)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
}

func encodeList(items []any) (string, error) {
	parts := make([]string, len(items))
	for i, item := range items {
		s, err := EncodeValue(item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func encodeFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedLiteral, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

// encodeString quotes s as a double-quoted Cypher string literal. JSON string
// escapes are a subset of what Cypher accepts.
func encodeString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

func encodeKey(k string) string {
	if isIdentifier(k) {
		return k
	}
	return "`" + strings.ReplaceAll(k, "`", "``") + "`"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// temporalLayouts are tried in order when a temporal argument arrives as text.
var temporalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func isTemporal(scalar string) bool {
	switch scalar {
	case "DateTime", "Date", "LocalDateTime":
		return true
	}
	return false
}

// coerceArgs returns a copy of args with nil values dropped and string values
// of temporal arguments parsed to time.Time. Text that does not parse is kept
// as a string.
func coerceArgs(defs []*schema.InputValue, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for name, v := range args {
		if v == nil {
			continue
		}
		for _, def := range defs {
			if def.Name == name && isTemporal(def.Type.GetNamedType()) {
				v = parseTemporal(v)
				break
			}
		}
		out[name] = v
	}
	return out
}

func parseTemporal(v any) any {
	switch x := v.(type) {
	case string:
		for _, layout := range temporalLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t
			}
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = parseTemporal(item)
		}
		return out
	default:
		return v
	}
}

// toInt reads an integer-valued argument. Variables decoded from JSON arrive
// as float64 and are accepted when integral.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n, true
		}
	}
	return 0, false
}
