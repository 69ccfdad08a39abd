package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

func testLookups() entity.Lookups {
	return entity.Lookups{
		Personnel: []entity.Option{
			{ID: "p1", Name: "Alice Smith"},
			{ID: "p2", Name: "Bob Jones"},
		},
		Equipment: []entity.Option{
			{ID: "e9", Name: "Excavator 12"},
		},
		Jobsites: []entity.Option{
			{ID: "j3", Name: "North Yard"},
		},
		CostCodes: []entity.Option{
			{ID: "c7", Name: "CC-100"},
		},
	}
}

func testTemplate() *entity.FormTemplate {
	return &entity.FormTemplate{
		ID:       "t1",
		Name:     "Daily Report",
		FormType: "DAILY_REPORT",
		Groupings: []entity.FormGrouping{
			{
				ID:    "g1",
				Order: 1,
				Fields: []entity.FormField{
					{ID: "notes", Type: entity.FieldTypeText, Label: "Notes"},
					{ID: "hours", Type: entity.FieldTypeNumber, Label: "Hours"},
					{ID: "safe", Type: entity.FieldTypeCheckbox, Label: "Safe"},
					{ID: "crew", Type: entity.FieldTypeSearchPerson, Label: "Crew", Multiple: true},
					{ID: "lead", Type: entity.FieldTypeSearchPerson, Label: "Lead"},
					{ID: "machine", Type: entity.FieldTypeSearchAsset, Label: "Machine", Filter: entity.AssetFilterEquipment},
					{ID: "site", Type: entity.FieldTypeSearchAsset, Label: "Site", Filter: entity.AssetFilterJobsite},
					{ID: "untagged", Type: entity.FieldTypeSearchAsset, Label: "Untagged"},
				},
			},
		},
	}
}

func TestNormalizeForDisplay_Scalars(t *testing.T) {
	tmpl := testTemplate()
	lookups := testLookups()

	raw := map[string]any{
		"notes": "clear skies",
		"hours": 7.5,
		"safe":  true,
	}

	values := NormalizeForDisplay(tmpl, raw, lookups)

	assert.Equal(t, entity.Scalar{V: "clear skies"}, values["notes"])
	assert.Equal(t, entity.Scalar{V: 7.5}, values["hours"])
	assert.Equal(t, entity.Scalar{V: true}, values["safe"])
}

func TestNormalizeForDisplay_AbsentAndNull(t *testing.T) {
	tmpl := testTemplate()

	raw := map[string]any{
		"notes": nil,
	}

	values := NormalizeForDisplay(tmpl, raw, testLookups())

	// Explicit null is preserved, absent keys stay absent
	require.Contains(t, values, "notes")
	assert.Equal(t, entity.Scalar{V: nil}, values["notes"])
	assert.NotContains(t, values, "hours")
}

func TestNormalizeForDisplay_MultiPerson(t *testing.T) {
	tmpl := testTemplate()

	raw := map[string]any{"crew": "Alice Smith, Bob Jones"}
	values := NormalizeForDisplay(tmpl, raw, testLookups())

	expected := entity.ReferenceList{
		{ID: "p1", Name: "Alice Smith"},
		{ID: "p2", Name: "Bob Jones"},
	}
	assert.Equal(t, expected, values["crew"])

	wire := DenormalizeForStorage(values)
	assert.Equal(t, "Alice Smith, Bob Jones", wire["crew"])
}

func TestNormalizeForDisplay_MultiPersonDropsUnmatched(t *testing.T) {
	tmpl := testTemplate()

	raw := map[string]any{"crew": "Alice Smith, Unknown Person"}
	values := NormalizeForDisplay(tmpl, raw, testLookups())

	assert.Equal(t, entity.ReferenceList{{ID: "p1", Name: "Alice Smith"}}, values["crew"])
}

func TestNormalizeForDisplay_SinglePerson(t *testing.T) {
	tmpl := testTemplate()

	tests := []struct {
		name     string
		raw      any
		expected entity.Value
	}{
		{
			name:     "matched name becomes a reference",
			raw:      "Bob Jones",
			expected: entity.Reference{ID: "p2", Name: "Bob Jones"},
		},
		{
			name:     "unmatched name keeps the raw string",
			raw:      "Nobody Here",
			expected: entity.Scalar{V: "Nobody Here"},
		},
		{
			name:     "whitespace around a match is tolerated",
			raw:      "  Alice Smith  ",
			expected: entity.Reference{ID: "p1", Name: "Alice Smith"},
		},
		{
			name:     "empty string stays scalar",
			raw:      "",
			expected: entity.Scalar{V: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := NormalizeForDisplay(tmpl, map[string]any{"lead": tt.raw}, testLookups())
			assert.Equal(t, tt.expected, values["lead"])
		})
	}
}

func TestNormalizeForDisplay_Asset(t *testing.T) {
	tmpl := testTemplate()

	tests := []struct {
		name     string
		fieldID  string
		raw      any
		expected entity.Value
	}{
		{
			name:     "equipment match is tagged by filter",
			fieldID:  "machine",
			raw:      "Excavator 12",
			expected: entity.AssetReference{ID: "e9", Name: "Excavator 12", Type: "equipment"},
		},
		{
			name:     "case-insensitive fallback",
			fieldID:  "machine",
			raw:      "excavator 12",
			expected: entity.AssetReference{ID: "e9", Name: "Excavator 12", Type: "equipment"},
		},
		{
			name:     "jobsite filter tags jobsite",
			fieldID:  "site",
			raw:      "North Yard",
			expected: entity.AssetReference{ID: "j3", Name: "North Yard", Type: "jobsite"},
		},
		{
			name:     "no filter defaults to asset",
			fieldID:  "untagged",
			raw:      "CC-100",
			expected: entity.AssetReference{ID: "c7", Name: "CC-100", Type: "asset"},
		},
		{
			name:     "unmatched keeps raw string",
			fieldID:  "machine",
			raw:      "Crane 99",
			expected: entity.Scalar{V: "Crane 99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := NormalizeForDisplay(tmpl, map[string]any{tt.fieldID: tt.raw}, testLookups())
			assert.Equal(t, tt.expected, values[tt.fieldID])
		})
	}
}

func TestNormalizeForDisplay_StructuredStrings(t *testing.T) {
	tmpl := testTemplate()

	t.Run("object string decodes", func(t *testing.T) {
		values := NormalizeForDisplay(tmpl, map[string]any{"notes": `{"lat":1.5}`}, testLookups())
		require.IsType(t, entity.Structured{}, values["notes"])
		s := values["notes"].(entity.Structured)
		assert.True(t, s.Encoded)
		assert.Equal(t, map[string]any{"lat": 1.5}, s.V)
		assert.Equal(t, `{"lat":1.5}`, s.Wire())
	})

	t.Run("string array decodes to string list", func(t *testing.T) {
		values := NormalizeForDisplay(tmpl, map[string]any{"notes": `["a","b"]`}, testLookups())
		assert.Equal(t, entity.StringList{"a", "b"}, values["notes"])
		assert.Equal(t, `["a","b"]`, values["notes"].Wire())
	})

	t.Run("decode failure keeps original string", func(t *testing.T) {
		values := NormalizeForDisplay(tmpl, map[string]any{"notes": "{not json}"}, testLookups())
		assert.Equal(t, entity.Scalar{V: "{not json}"}, values["notes"])
	})
}

func TestNormalizeForDisplay_UnknownKeysPreserved(t *testing.T) {
	tmpl := testTemplate()

	raw := map[string]any{"legacy_field": "kept"}
	values := NormalizeForDisplay(tmpl, raw, testLookups())

	assert.Equal(t, entity.Scalar{V: "kept"}, values["legacy_field"])

	wire := DenormalizeForStorage(values)
	assert.Equal(t, "kept", wire["legacy_field"])
}

func TestNormalizeForDisplay_Idempotent(t *testing.T) {
	tmpl := testTemplate()
	lookups := testLookups()

	raw := map[string]any{
		"notes":   "clear skies",
		"hours":   7.5,
		"safe":    true,
		"crew":    "Alice Smith, Bob Jones",
		"lead":    "Bob Jones",
		"machine": "Excavator 12",
	}

	once := NormalizeForDisplay(tmpl, raw, lookups)

	again := make(map[string]any, len(once))
	for k, v := range once {
		again[k] = v
	}
	twice := NormalizeForDisplay(tmpl, again, lookups)

	assert.Equal(t, once, twice)
}

func TestRoundTrip_MatchedNames(t *testing.T) {
	tmpl := testTemplate()
	lookups := testLookups()

	wire := map[string]any{
		"notes":   "clear skies",
		"hours":   7.5,
		"safe":    true,
		"crew":    "Alice Smith, Bob Jones",
		"lead":    "Bob Jones",
		"machine": "Excavator 12",
		"site":    "North Yard",
	}

	roundTripped := DenormalizeForStorage(NormalizeForDisplay(tmpl, wire, lookups))
	assert.Equal(t, wire, roundTripped)
}

func TestDenormalizeForStorage_NilValue(t *testing.T) {
	wire := DenormalizeForStorage(map[string]entity.Value{"notes": nil})
	assert.Equal(t, map[string]any{"notes": nil}, wire)
}
