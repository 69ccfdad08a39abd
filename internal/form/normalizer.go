// Package form implements the template-driven conversion between the flat
// wire representation of submission data and its richly-typed canonical
// form, plus the structural validation consulted before a status transition.
package form

import (
	"encoding/json"
	"strings"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// codecFunc converts one raw wire value into its canonical variant.
type codecFunc func(field entity.FormField, raw any, lookups entity.Lookups) entity.Value

// One codec per field type. Types without an entry fall back to the scalar
// codec, which also covers SIGNATURE and free-form text variants.
var codecs = map[entity.FieldType]codecFunc{
	entity.FieldTypeText:         normalizeScalar,
	entity.FieldTypeTextarea:     normalizeScalar,
	entity.FieldTypeNumber:       normalizeScalar,
	entity.FieldTypeDate:         normalizeScalar,
	entity.FieldTypeCheckbox:     normalizeScalar,
	entity.FieldTypeSignature:    normalizeScalar,
	entity.FieldTypeSearchPerson: normalizePerson,
	entity.FieldTypeSearchAsset:  normalizeAsset,
}

// NormalizeForDisplay interprets a raw persisted record against the template.
// Absent keys stay absent; explicit nulls are preserved. Values that are
// already canonical pass through unchanged, so the conversion is idempotent.
// Keys the template does not declare are preserved untouched.
func NormalizeForDisplay(tmpl *entity.FormTemplate, raw map[string]any, lookups entity.Lookups) map[string]entity.Value {
	out := make(map[string]entity.Value, len(raw))

	declared := make(map[string]bool, len(raw))
	for _, g := range tmpl.Groupings {
		for _, f := range g.Fields {
			declared[f.ID] = true
			rawValue, ok := raw[f.ID]
			if !ok {
				continue
			}
			if v, ok := rawValue.(entity.Value); ok {
				out[f.ID] = v
				continue
			}
			codec, ok := codecs[f.Type]
			if !ok {
				codec = normalizeScalar
			}
			out[f.ID] = codec(f, rawValue, lookups)
		}
	}

	for key, rawValue := range raw {
		if declared[key] {
			continue
		}
		out[key] = passThrough(rawValue)
	}

	return out
}

// DenormalizeForStorage renders a canonical record back to its wire form.
// Relational variants become comma-joined display-name strings; scalars pass
// through unchanged.
func DenormalizeForStorage(values map[string]entity.Value) map[string]any {
	out := make(map[string]any, len(values))
	for id, v := range values {
		if v == nil {
			out[id] = nil
			continue
		}
		out[id] = v.Wire()
	}
	return out
}

// normalizeScalar passes wire scalars through, decoding a string into a
// structured value only when it looks like encoded JSON. A failed decode
// keeps the original string untouched.
func normalizeScalar(_ entity.FormField, raw any, _ entity.Lookups) entity.Value {
	s, ok := raw.(string)
	if !ok {
		return passThrough(raw)
	}

	if looksStructured(s) {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			if items, ok := toStringSlice(decoded); ok {
				return entity.StringList(items)
			}
			return entity.Structured{V: decoded, Encoded: true}
		}
	}

	return entity.Scalar{V: s}
}

func normalizePerson(field entity.FormField, raw any, lookups entity.Lookups) entity.Value {
	s, ok := raw.(string)
	if !ok {
		return passThroughPerson(raw)
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return entity.Scalar{V: s}
	}

	if field.Multiple {
		list := entity.ReferenceList{}
		for _, name := range strings.Split(s, ",") {
			opt, ok := lookups.Person(name)
			if !ok {
				// Unmatched names are dropped. This lossiness is policy:
				// the roster is the authority on who can be referenced.
				continue
			}
			list = append(list, entity.Reference{ID: opt.ID, Name: opt.Name})
		}
		return list
	}

	if opt, ok := lookups.Person(trimmed); ok {
		return entity.Reference{ID: opt.ID, Name: opt.Name}
	}
	// Single select keeps the raw string when nothing matches.
	return entity.Scalar{V: s}
}

func normalizeAsset(field entity.FormField, raw any, lookups entity.Lookups) entity.Value {
	s, ok := raw.(string)
	if !ok {
		return passThroughAsset(raw)
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return entity.Scalar{V: s}
	}

	assetType := assetTypeFor(field)

	if field.Multiple {
		list := entity.AssetReferenceList{}
		for _, name := range strings.Split(s, ",") {
			opt, ok := lookups.Asset(name)
			if !ok {
				continue
			}
			list = append(list, entity.AssetReference{ID: opt.ID, Name: opt.Name, Type: assetType})
		}
		return list
	}

	if opt, ok := lookups.Asset(trimmed); ok {
		return entity.AssetReference{ID: opt.ID, Name: opt.Name, Type: assetType}
	}
	return entity.Scalar{V: s}
}

// assetTypeFor derives the canonical type tag from the field's filter.
func assetTypeFor(field entity.FormField) string {
	if field.Filter == "" {
		return "asset"
	}
	return strings.ToLower(field.Filter)
}

// passThrough wraps an already structured or scalar raw value without
// interpreting it.
func passThrough(raw any) entity.Value {
	switch v := raw.(type) {
	case entity.Value:
		return v
	case map[string]any, []any:
		return entity.Structured{V: v}
	default:
		return entity.Scalar{V: v}
	}
}

// passThroughPerson keeps structured person input canonical so a second
// normalization pass is a no-op.
func passThroughPerson(raw any) entity.Value {
	switch v := raw.(type) {
	case entity.Value:
		return v
	case map[string]any:
		if ref, ok := toReference(v); ok {
			return ref
		}
		return entity.Structured{V: v}
	case []any:
		list := entity.ReferenceList{}
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return entity.Structured{V: v}
			}
			ref, ok := toReference(m)
			if !ok {
				return entity.Structured{V: v}
			}
			list = append(list, ref)
		}
		return list
	default:
		return entity.Scalar{V: v}
	}
}

func passThroughAsset(raw any) entity.Value {
	switch v := raw.(type) {
	case entity.Value:
		return v
	case map[string]any:
		if ref, ok := toAssetReference(v); ok {
			return ref
		}
		return entity.Structured{V: v}
	case []any:
		list := entity.AssetReferenceList{}
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return entity.Structured{V: v}
			}
			ref, ok := toAssetReference(m)
			if !ok {
				return entity.Structured{V: v}
			}
			list = append(list, ref)
		}
		return list
	default:
		return entity.Scalar{V: v}
	}
}

func toReference(m map[string]any) (entity.Reference, bool) {
	id, okID := m["id"].(string)
	name, okName := m["name"].(string)
	if !okID || !okName {
		return entity.Reference{}, false
	}
	return entity.Reference{ID: id, Name: name}, true
}

func toAssetReference(m map[string]any) (entity.AssetReference, bool) {
	id, okID := m["id"].(string)
	name, okName := m["name"].(string)
	if !okID || !okName {
		return entity.AssetReference{}, false
	}
	ref := entity.AssetReference{ID: id, Name: name, Type: "asset"}
	if t, ok := m["type"].(string); ok && t != "" {
		ref.Type = t
	}
	return ref, true
}

// looksStructured reports whether a string looks like an encoded JSON object
// or array.
func looksStructured(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

func toStringSlice(decoded any) ([]string, bool) {
	items, ok := decoded.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}
