package domain

import (
	"fmt"
	"time"
)

// Visibility controls whether an item appears in the public catalog or only
// in the restricted one.
type Visibility string

const (
	VisibilityPublic            Visibility = "public"
	VisibilityRestrictedCatalog Visibility = "restricted_catalog"
)

// IsValid returns true if the visibility is a recognized value.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityRestrictedCatalog
}

// Acceptability describes the standing of an alternate definition.
type Acceptability string

const (
	AcceptabilityAccepted   Acceptability = "accepted"
	AcceptabilityDeprecated Acceptability = "deprecated"
	AcceptabilityExpired    Acceptability = "expired"
	AcceptabilitySuperseded Acceptability = "superseded"
)

// IsValid returns true if the acceptability is a recognized value.
func (a Acceptability) IsValid() bool {
	switch a {
	case AcceptabilityAccepted, AcceptabilityDeprecated, AcceptabilityExpired, AcceptabilitySuperseded:
		return true
	default:
		return false
	}
}

// AlternateDefinition is a localized secondary definition of an item.
type AlternateDefinition struct {
	Context       string
	Name          string
	Definition    string
	Language      string
	Acceptability Acceptability
}

// ValueType is the type of an extension attribute value or of a value domain
// storage column. The registry supports four scalar types.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeDate    ValueType = "date"
)

// IsValid returns true if the value type is recognized.
func (t ValueType) IsValid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeDate:
		return true
	default:
		return false
	}
}

// ExtensionValue is a typed value in the free-form attribute bag.
// Exactly one representation is used depending on Type.
type ExtensionValue struct {
	Type    ValueType
	String  string
	Number  float64
	Boolean bool
	Date    time.Time
}

// StringValue builds a string-typed extension value.
func StringValue(s string) ExtensionValue {
	return ExtensionValue{Type: TypeString, String: s}
}

// NumberValue builds a number-typed extension value.
func NumberValue(n float64) ExtensionValue {
	return ExtensionValue{Type: TypeNumber, Number: n}
}

// BooleanValue builds a boolean-typed extension value.
func BooleanValue(b bool) ExtensionValue {
	return ExtensionValue{Type: TypeBoolean, Boolean: b}
}

// DateValue builds a date-typed extension value.
func DateValue(d time.Time) ExtensionValue {
	return ExtensionValue{Type: TypeDate, Date: d}
}

// ExtensionField declares one organization-specific attribute a registry
// accepts on its items and relationships.
type ExtensionField struct {
	Name     string
	Type     ValueType
	Required bool
}

// ExtensionSchema is the per-registry set of declared extension attributes,
// keyed by attribute name. A nil schema accepts no extension attributes.
type ExtensionSchema map[string]ExtensionField

// Check validates an attribute bag against the schema. It returns one
// message per offending attribute so callers can surface them together.
func (s ExtensionSchema) Check(values map[string]ExtensionValue) []string {
	var problems []string
	for name, value := range values {
		field, ok := s[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("extension %q is not declared in the registry schema", name))
			continue
		}
		if value.Type != field.Type {
			problems = append(problems, fmt.Sprintf("extension %q must be %s, got %s", name, field.Type, value.Type))
		}
	}
	for name, field := range s {
		if !field.Required {
			continue
		}
		if _, ok := values[name]; !ok {
			problems = append(problems, fmt.Sprintf("extension %q is required", name))
		}
	}
	return problems
}

// Attributes is the full metadata payload of one item version. Versions
// snapshot the whole struct; there is no partial update.
type Attributes struct {
	Name            string
	Context         string
	Definition      string
	Tags            []string
	Visibility      Visibility
	Origin          string
	UsageNotes      string
	CollectionNotes string
	Extensions      map[string]ExtensionValue
	Alternates      []AlternateDefinition

	// Element carries Data Element specifics; nil for other variants.
	Element *DataElementSpec

	// Domain carries Value Domain specifics; nil for other variants.
	Domain *ValueDomainSpec
}

// Clone returns a deep copy so a stored snapshot can never be mutated
// through a caller-held reference.
func (a Attributes) Clone() Attributes {
	out := a
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	if a.Alternates != nil {
		out.Alternates = append([]AlternateDefinition(nil), a.Alternates...)
	}
	if a.Extensions != nil {
		out.Extensions = make(map[string]ExtensionValue, len(a.Extensions))
		for k, v := range a.Extensions {
			out.Extensions[k] = v
		}
	}
	if a.Element != nil {
		el := *a.Element
		out.Element = &el
	}
	if a.Domain != nil {
		out.Domain = a.Domain.clone()
	}
	return out
}
