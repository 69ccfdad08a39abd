package entity

import (
	"encoding/json"
	"strings"
)

// ValueKind tags the canonical value variants.
type ValueKind string

const (
	KindScalar             ValueKind = "SCALAR"
	KindReference          ValueKind = "REFERENCE"
	KindAssetReference     ValueKind = "ASSET_REFERENCE"
	KindReferenceList      ValueKind = "REFERENCE_LIST"
	KindAssetReferenceList ValueKind = "ASSET_REFERENCE_LIST"
	KindStringList         ValueKind = "STRING_LIST"
	KindStructured         ValueKind = "STRUCTURED"
)

// Value is the canonical, richly-typed in-memory representation of a field's
// value. Each variant knows how to render itself back to the flat wire form.
type Value interface {
	Kind() ValueKind

	// Wire renders the value to its persisted representation: a scalar, a
	// comma-joined display-name string for relational variants, or the JSON
	// text of an inherently structured value.
	Wire() any

	// Empty reports whether the value counts as empty for required-field
	// checks. Only nil and the empty string are empty; false, zero and
	// empty lists are not.
	Empty() bool
}

// Scalar wraps a pass-through wire scalar: string, float64, bool or nil.
// An explicit null on the wire is preserved as Scalar{V: nil}.
type Scalar struct {
	V any
}

func (s Scalar) Kind() ValueKind { return KindScalar }
func (s Scalar) Wire() any       { return s.V }

func (s Scalar) Empty() bool {
	if s.V == nil {
		return true
	}
	str, ok := s.V.(string)
	return ok && str == ""
}

// Reference is a resolved relational value for a person field.
type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r Reference) Kind() ValueKind { return KindReference }
func (r Reference) Wire() any       { return r.Name }
func (r Reference) Empty() bool     { return false }

// AssetReference is a resolved relational value for an asset field. Type is
// the lower-cased field filter (equipment, jobsite, cost_code) or "asset".
type AssetReference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (r AssetReference) Kind() ValueKind { return KindAssetReference }
func (r AssetReference) Wire() any       { return r.Name }
func (r AssetReference) Empty() bool     { return false }

// ReferenceList is the canonical value of a multi-select person field.
type ReferenceList []Reference

func (l ReferenceList) Kind() ValueKind { return KindReferenceList }
func (l ReferenceList) Empty() bool     { return false }

func (l ReferenceList) Wire() any {
	names := make([]string, len(l))
	for i, r := range l {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

// AssetReferenceList is the canonical value of a multi-select asset field.
type AssetReferenceList []AssetReference

func (l AssetReferenceList) Kind() ValueKind { return KindAssetReferenceList }
func (l AssetReferenceList) Empty() bool     { return false }

func (l AssetReferenceList) Wire() any {
	names := make([]string, len(l))
	for i, r := range l {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

// StringList is a decoded JSON array of strings. Its wire form is the JSON
// text it was decoded from.
type StringList []string

func (l StringList) Kind() ValueKind { return KindStringList }
func (l StringList) Empty() bool     { return false }

func (l StringList) Wire() any {
	b, err := json.Marshal([]string(l))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Structured wraps an inherently structured value: a decoded JSON object or
// array that is not relational. Encoded records whether the wire form is the
// JSON text of V (it was decoded from a string) or V itself.
type Structured struct {
	V       any
	Encoded bool
}

func (s Structured) Kind() ValueKind { return KindStructured }
func (s Structured) Empty() bool     { return false }

func (s Structured) Wire() any {
	if !s.Encoded {
		return s.V
	}
	b, err := json.Marshal(s.V)
	if err != nil {
		return s.V
	}
	return string(b)
}

// Truthy reports whether a value satisfies the signature gate: present,
// non-empty and not false.
func Truthy(v Value) bool {
	if v == nil || v.Empty() {
		return false
	}
	if s, ok := v.(Scalar); ok {
		if b, ok := s.V.(bool); ok {
			return b
		}
	}
	return true
}
