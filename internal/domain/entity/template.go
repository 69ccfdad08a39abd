package entity

import "time"

// FieldType identifies the kind of input a form field accepts.
type FieldType string

const (
	FieldTypeText         FieldType = "TEXT"
	FieldTypeTextarea     FieldType = "TEXTAREA"
	FieldTypeNumber       FieldType = "NUMBER"
	FieldTypeDate         FieldType = "DATE"
	FieldTypeCheckbox     FieldType = "CHECKBOX"
	FieldTypeSignature    FieldType = "SIGNATURE"
	FieldTypeSearchPerson FieldType = "SEARCH_PERSON"
	FieldTypeSearchAsset  FieldType = "SEARCH_ASSET"
)

// Asset filter constants for SEARCH_ASSET fields. The filter selects which
// catalog the field resolves against and tags matched values.
const (
	AssetFilterEquipment = "EQUIPMENT"
	AssetFilterJobsite   = "JOBSITE"
	AssetFilterCostCode  = "COST_CODE"
)

// FormField describes one input declared by a template.
type FormField struct {
	ID       string    `json:"id"`
	Type     FieldType `json:"type"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Multiple bool      `json:"multiple"`
	Filter   string    `json:"filter,omitempty"`
}

// FormGrouping is an ordered section of a template.
type FormGrouping struct {
	ID     string      `json:"id"`
	Order  int         `json:"order"`
	Fields []FormField `json:"fields"`
}

// FormTemplate is the schema for a dynamic form. Templates are immutable
// for the lifetime of an editing session.
type FormTemplate struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	FormType            string         `json:"formType"`
	IsApprovalRequired  bool           `json:"isApprovalRequired"`
	IsSignatureRequired bool           `json:"isSignatureRequired"`
	Groupings           []FormGrouping `json:"groupings"`
	CreatedAt           time.Time      `json:"createdAt,omitempty"`
	UpdatedAt           time.Time      `json:"updatedAt,omitempty"`
}

// Field returns the field with the given id, searching every grouping.
func (t *FormTemplate) Field(id string) (FormField, bool) {
	for _, g := range t.Groupings {
		for _, f := range g.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return FormField{}, false
}

// SignatureField returns the first SIGNATURE field declared by the template.
func (t *FormTemplate) SignatureField() (FormField, bool) {
	for _, g := range t.Groupings {
		for _, f := range g.Fields {
			if f.Type == FieldTypeSignature {
				return f, true
			}
		}
	}
	return FormField{}, false
}
