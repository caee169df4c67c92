package deps

import (
	"fmt"
	"sort"
)

// Normalize converts dependency declarations into an ordered []Filter.
//
// Accepted shapes:
//   - nil or empty: no dependencies
//   - a mapping with a "name" key: one dependency
//   - a mapping without "name": name→version pairs
//   - a list: entries carrying a "name" key; others are dropped
//
// For frameworks and platforms, "*" is removed and comma-separated strings
// are split into tags. Lists are kept as written. Normalize is idempotent.
func Normalize(v any) []Filter {
	switch t := v.(type) {
	case nil:
		return nil
	case Declarations:
		return Normalize(t.value)
	case *Declarations:
		if t == nil {
			return nil
		}
		return Normalize(t.value)
	case Filter:
		if t.Name == "" {
			return nil
		}
		return []Filter{t}
	case []Filter:
		var out []Filter
		for _, f := range t {
			if f.Name != "" {
				out = append(out, f)
			}
		}
		return out
	case object:
		if _, ok := t.get("name"); ok {
			return []Filter{filterFromObject(t)}
		}
		var out []Filter
		for _, m := range t {
			out = append(out, Filter{Name: m.Key, Version: scalar(m.Value)})
		}
		return out
	case map[string]any:
		return Normalize(objectFromMap(t))
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[k] = v
		}
		return Normalize(objectFromMap(m))
	case []map[string]any:
		items := make([]any, len(t))
		for i, m := range t {
			items[i] = m
		}
		return Normalize(items)
	case []any:
		var out []Filter
		for _, item := range t {
			obj, ok := asObject(item)
			if !ok {
				continue
			}
			if _, hasName := obj.get("name"); !hasName {
				continue
			}
			out = append(out, filterFromObject(obj))
		}
		return out
	default:
		return nil
	}
}

func filterFromObject(obj object) Filter {
	var f Filter
	if v, ok := obj.get("name"); ok {
		f.Name = scalar(v)
	}
	if v, ok := obj.get("version"); ok {
		f.Version = scalar(v)
	}
	if v, ok := obj.get("authors"); ok {
		f.Authors = authorList(v)
	}
	if v, ok := obj.get("frameworks"); ok {
		f.Frameworks = tagList(v)
	}
	if v, ok := obj.get("platforms"); ok {
		f.Platforms = tagList(v)
	}
	return f
}

// tagList applies the wildcard and comma rules to a framework/platform value.
func tagList(v any) []string {
	switch t := v.(type) {
	case string:
		return SplitTags(t)
	case []string:
		return t
	case Tags:
		return []string(t)
	case []any:
		return stringList(t)
	default:
		return nil
	}
}

// authorList accepts a comma-separated string, a list of names, or author
// objects carrying a "name" key.
func authorList(v any) []string {
	switch t := v.(type) {
	case string:
		return splitList(t)
	case []string:
		return t
	case object, map[string]any:
		obj, _ := asObject(t)
		if name, ok := obj.get("name"); ok {
			return []string{scalar(name)}
		}
		return nil
	case []any:
		var out []string
		for _, item := range t {
			if obj, ok := asObject(item); ok {
				if name, ok := obj.get("name"); ok {
					out = append(out, scalar(name))
				}
				continue
			}
			out = append(out, scalar(item))
		}
		return out
	default:
		return nil
	}
}

func stringList(items []any) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, scalar(item))
	}
	return out
}

func asObject(v any) (object, bool) {
	switch t := v.(type) {
	case object:
		return t, true
	case map[string]any:
		return objectFromMap(t), true
	case Filter:
		obj := object{{Key: "name", Value: t.Name}}
		if t.Version != "" {
			obj = append(obj, member{Key: "version", Value: t.Version})
		}
		if t.Authors != nil {
			obj = append(obj, member{Key: "authors", Value: t.Authors})
		}
		if t.Frameworks != nil {
			obj = append(obj, member{Key: "frameworks", Value: t.Frameworks})
		}
		if t.Platforms != nil {
			obj = append(obj, member{Key: "platforms", Value: t.Platforms})
		}
		return obj, true
	default:
		return nil, false
	}
}

// objectFromMap orders keys alphabetically; Go maps carry no declaration order.
func objectFromMap(m map[string]any) object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := make(object, 0, len(keys))
	for _, k := range keys {
		obj = append(obj, member{Key: k, Value: m[k]})
	}
	return obj
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
