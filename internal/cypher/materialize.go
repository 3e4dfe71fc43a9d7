package cypher

import (
	"maps"
	"slices"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	schema "github.com/hanpama/graphcypher/internal/schema"
)

// Materialize shapes the records of a statement into the value of its root
// field: a list for list-typed fields, otherwise the first record or nil.
// Values are normalized against the schema so that objects carry only the
// keys declared on their type and driver values become plain Go values.
func Materialize(s *schema.Schema, stmt *Statement, records []map[string]any) any {
	named := s.NamedTypeOf(stmt.Type)
	if stmt.Type.HasList() {
		out := make([]any, 0, len(records))
		for _, rec := range records {
			out = append(out, normalize(s, named, rec[stmt.Binding]))
		}
		return out
	}
	if len(records) == 0 {
		return nil
	}
	return normalize(s, named, records[0][stmt.Binding])
}

func normalize(s *schema.Schema, typ *schema.Type, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case dbtype.Node:
		props := x.Props
		if typ.IsAbstract() {
			props = maps.Clone(props)
			if props == nil {
				props = map[string]any{}
			}
			for _, label := range x.Labels {
				if slices.Contains(s.PossibleObjects(typ.Name), label) {
					props["__typename"] = label
					break
				}
			}
		}
		return normalizeObject(s, typ, props)
	case dbtype.Relationship:
		return normalizeObject(s, typ, x.Props)
	case map[string]any:
		return normalizeObject(s, typ, x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(s, typ, item)
		}
		return out
	case dbtype.Date:
		return x.Time()
	case dbtype.LocalDateTime:
		return x.Time()
	case dbtype.LocalTime:
		return x.Time()
	case dbtype.Time:
		return x.Time()
	case dbtype.Duration:
		return x.String()
	case time.Time:
		return x
	default:
		return v
	}
}

// normalizeObject keeps the keys of m declared on typ. Without a known
// object type the map is returned unchanged.
func normalizeObject(s *schema.Schema, typ *schema.Type, m map[string]any) any {
	if typ.IsAbstract() {
		return normalizeAbstract(s, typ, m)
	}
	if typ == nil || typ.IsLeaf() || len(typ.Fields) == 0 {
		return m
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		f := typ.Field(k)
		if f == nil {
			continue
		}
		out[k] = normalize(s, s.NamedTypeOf(f.Type), v)
	}
	return out
}

// normalizeAbstract shapes an interface or union value by the possible type
// named in its __typename key. A name that is not a possible type is dropped
// and the keys declared on the abstract type are kept.
func normalizeAbstract(s *schema.Schema, typ *schema.Type, m map[string]any) any {
	name, _ := m["__typename"].(string)
	if !slices.Contains(s.PossibleObjects(typ.Name), name) {
		rest := maps.Clone(m)
		delete(rest, "__typename")
		if len(typ.Fields) == 0 {
			return rest
		}
		out := make(map[string]any, len(rest))
		for k, v := range rest {
			if f := typ.Field(k); f != nil {
				out[k] = normalize(s, s.NamedTypeOf(f.Type), v)
			}
		}
		return out
	}
	out, ok := normalizeObject(s, s.Types[name], m).(map[string]any)
	if !ok {
		return m
	}
	out["__typename"] = name
	return out
}
