package profile

import (
	"strings"

	"codeberg.org/avask/framectl/internal/platform"
)

// FieldSet is one stored profile entry: knob name to value, as decoded
// from the overrides file. Values may be integers, booleans (for
// boost_enabled) or strings (fan_mode, fan_curve).
type FieldSet map[string]any

// Overrides is the stored override table: platform identity to symbolic
// profile name to field set. It is owned by the config collaborator and
// consumed read-only here.
type Overrides map[string]map[string]FieldSet

// Lookup finds the entry for a platform and symbolic name. Names are
// case-insensitive.
func (o Overrides) Lookup(id platform.Identity, name string) (FieldSet, bool) {
	byName, ok := o[string(id)]
	if !ok {
		return nil, false
	}

	entry, ok := byName[strings.ToLower(name)]
	return entry, ok
}

// Merge layers explicit entries over base, field by field. A field
// present in over always wins; base only fills gaps. This direction is
// load-bearing: a bulk overwrite the other way would let defaults
// clobber explicit stored values for overlapping keys.
func Merge(base, over Overrides) Overrides {
	out := make(Overrides, len(base))

	for id, byName := range base {
		out[id] = make(map[string]FieldSet, len(byName))
		for name, fields := range byName {
			entry := make(FieldSet, len(fields))
			for k, v := range fields {
				entry[k] = v
			}
			out[id][name] = entry
		}
	}

	for id, byName := range over {
		if _, ok := out[id]; !ok {
			out[id] = make(map[string]FieldSet, len(byName))
		}
		for name, fields := range byName {
			name = strings.ToLower(name)
			entry, ok := out[id][name]
			if !ok {
				entry = make(FieldSet, len(fields))
				out[id][name] = entry
			}
			for k, v := range fields {
				entry[k] = v
			}
		}
	}

	return out
}

func (fs FieldSet) intField(name string) (int, bool) {
	v, ok := fs[name]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}

	return 0, false
}

func (fs FieldSet) boolField(name string) (bool, bool) {
	v, ok := fs[name]
	if !ok {
		return false, false
	}

	b, ok := v.(bool)
	return b, ok
}

func (fs FieldSet) stringField(name string) (string, bool) {
	v, ok := fs[name]
	if !ok {
		return "", false
	}

	s, ok := v.(string)
	return s, ok
}
