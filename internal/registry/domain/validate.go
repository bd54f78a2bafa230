package domain

import (
	"fmt"
	"strings"
)

// Validator checks item and relationship payloads before they are saved.
// Resolve, when set, looks up the current version of a referenced item and
// enables cross-item checks (value domain references, edge endpoints).
type Validator struct {
	Schema  ExtensionSchema
	Resolve func(itemID string) (*Version, error)
}

// ValidateItem normalizes and validates an attribute payload for the given
// variant. When forTransition is true the stricter rules for leaving
// Candidate apply (a definition becomes mandatory). The returned attributes
// are a normalized copy; the input is never mutated. On failure the error is
// a *ValidationError listing every offending field.
func (v *Validator) ValidateItem(variant Variant, attrs Attributes) (Attributes, error) {
	return v.validateItem(variant, attrs, false)
}

// ValidateForTransition applies the full validation rules required before a
// status transition out of Candidate may be requested.
func (v *Validator) ValidateForTransition(variant Variant, attrs Attributes) (Attributes, error) {
	return v.validateItem(variant, attrs, true)
}

func (v *Validator) validateItem(variant Variant, attrs Attributes, forTransition bool) (Attributes, error) {
	out := attrs.Clone()
	var fields []string

	if !variant.IsValid() {
		fields = append(fields, fmt.Sprintf("variant: unknown variant %q", variant))
	}

	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		fields = append(fields, "name: required")
	}

	if out.Visibility == "" {
		out.Visibility = VisibilityPublic
	} else if !out.Visibility.IsValid() {
		fields = append(fields, fmt.Sprintf("visibility: unknown value %q", out.Visibility))
	}

	if forTransition && strings.TrimSpace(out.Definition) == "" {
		fields = append(fields, "definition: required before leaving candidate")
	}

	for i, alt := range out.Alternates {
		if !alt.Acceptability.IsValid() {
			fields = append(fields, fmt.Sprintf("alternates[%d].acceptability: unknown value %q", i, alt.Acceptability))
		}
		if strings.TrimSpace(alt.Definition) == "" && strings.TrimSpace(alt.Name) == "" {
			fields = append(fields, fmt.Sprintf("alternates[%d]: a localized name or definition is required", i))
		}
	}

	fields = append(fields, prefixAll("extensions", v.Schema.Check(out.Extensions))...)

	switch variant {
	case VariantDataElement:
		fields = append(fields, v.checkElement(out.Element)...)
		if out.Domain != nil {
			fields = append(fields, "domain: value domain payload is only valid on value domain items")
		}
	case VariantValueDomain:
		fields = append(fields, checkValueDomain(out.Domain)...)
		if out.Element != nil {
			fields = append(fields, "element: data element payload is only valid on data element items")
		}
	case VariantDataSetDefinition:
		if out.Element != nil {
			fields = append(fields, "element: data element payload is only valid on data element items")
		}
		if out.Domain != nil {
			fields = append(fields, "domain: value domain payload is only valid on value domain items")
		}
	}

	if len(fields) > 0 {
		return Attributes{}, &ValidationError{Fields: fields}
	}
	return out, nil
}

func (v *Validator) checkElement(el *DataElementSpec) []string {
	if el == nil {
		return []string{"element: data element payload is required"}
	}
	var fields []string
	if strings.TrimSpace(el.Property) == "" {
		fields = append(fields, "element.property: required")
	}
	if !el.DataType.IsValid() {
		fields = append(fields, fmt.Sprintf("element.data_type: unknown type %q", el.DataType))
	}
	if el.MaxSize < 0 {
		fields = append(fields, "element.max_size: must not be negative")
	}
	if el.ValueDomainID == "" {
		fields = append(fields, "element.value_domain: exactly one value domain reference is required")
		return fields
	}
	if v.Resolve == nil {
		return fields
	}
	ref, err := v.Resolve(el.ValueDomainID)
	if err != nil || ref == nil {
		fields = append(fields, fmt.Sprintf("element.value_domain: %s does not resolve to an item", el.ValueDomainID))
		return fields
	}
	if ref.Variant() != VariantValueDomain {
		fields = append(fields, fmt.Sprintf("element.value_domain: %s is a %s, not a value domain", el.ValueDomainID, ref.Variant()))
		return fields
	}
	refAttrs := ref.Attributes()
	if storage, ok := refAttrs.Domain.StorageType(); ok && storage != el.DataType {
		fields = append(fields, fmt.Sprintf("element.data_type: %s does not match the value domain storage column type %s",
			el.DataType, storage))
	}
	return fields
}

func checkValueDomain(d *ValueDomainSpec) []string {
	if d == nil {
		return []string{"domain: value domain payload is required"}
	}
	var fields []string
	switch d.Kind {
	case DomainDescribed:
		if len(d.Descriptions) == 0 {
			fields = append(fields, "domain.descriptions: at least one description is required")
		}
	case DomainEnumerated:
		if len(d.Columns) == 0 {
			fields = append(fields, "domain.columns: at least one column is required")
		}
		storage := 0
		for i, col := range d.Columns {
			if strings.TrimSpace(col.Name) == "" {
				fields = append(fields, fmt.Sprintf("domain.columns[%d].name: required", i))
			}
			if !col.Type.IsValid() {
				fields = append(fields, fmt.Sprintf("domain.columns[%d].type: unknown type %q", i, col.Type))
			}
			if col.Storage {
				storage++
			}
		}
		if len(d.Columns) > 0 && storage != 1 {
			fields = append(fields, fmt.Sprintf("domain.columns: exactly one storage column is required, found %d", storage))
		}
		for i, row := range d.Codes {
			if strings.TrimSpace(row.Code) == "" {
				fields = append(fields, fmt.Sprintf("domain.codes[%d].code: required", i))
			}
		}
	default:
		fields = append(fields, fmt.Sprintf("domain.kind: unknown kind %q", d.Kind))
	}
	return fields
}

// ValidateRelationship normalizes and validates an edge payload and checks
// that both endpoints resolve to items of permitted variants: the source
// must be a Data Set Definition, the target a Data Set Definition or Data
// Element.
func (v *Validator) ValidateRelationship(sourceID, targetID string, attrs RelationshipAttributes) (RelationshipAttributes, error) {
	out := attrs.clone()
	var fields []string

	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		fields = append(fields, "name: required")
	}
	if strings.TrimSpace(out.Definition) == "" {
		fields = append(fields, "definition: required")
	}
	switch {
	case !out.Obligation.IsValid():
		fields = append(fields, fmt.Sprintf("obligation: unknown value %q", out.Obligation))
	case out.Obligation == ObligationConditional && strings.TrimSpace(out.Condition) == "":
		fields = append(fields, "condition: required when obligation is conditional")
	case out.Obligation != ObligationConditional && strings.TrimSpace(out.Condition) != "":
		fields = append(fields, "condition: only valid when obligation is conditional")
	}
	if !out.Cardinality.IsValid() {
		fields = append(fields, fmt.Sprintf("cardinality: unknown value %q", out.Cardinality))
	}
	fields = append(fields, prefixAll("extensions", v.Schema.Check(out.Extensions))...)

	if v.Resolve != nil {
		if src, err := v.Resolve(sourceID); err != nil || src == nil {
			fields = append(fields, fmt.Sprintf("source: %s does not resolve to an item", sourceID))
		} else if src.Variant() != VariantDataSetDefinition {
			fields = append(fields, fmt.Sprintf("source: %s is a %s, relationships originate from data set definitions", sourceID, src.Variant()))
		}
		if tgt, err := v.Resolve(targetID); err != nil || tgt == nil {
			fields = append(fields, fmt.Sprintf("target: %s does not resolve to an item", targetID))
		} else if tgt.Variant() == VariantValueDomain {
			fields = append(fields, fmt.Sprintf("target: %s is a value domain, relationships point at data set definitions or data elements", targetID))
		}
	}

	if len(fields) > 0 {
		return RelationshipAttributes{}, &ValidationError{Fields: fields}
	}
	return out, nil
}

func prefixAll(prefix string, problems []string) []string {
	if len(problems) == 0 {
		return nil
	}
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = prefix + ": " + p
	}
	return out
}
