package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// resolverFor builds a Resolve func over a fixed set of items.
func resolverFor(items map[string]*Version) func(string) (*Version, error) {
	return func(itemID string) (*Version, error) {
		v, ok := items[itemID]
		if !ok {
			return nil, &NotFoundError{Kind: "item", ID: itemID}
		}
		return v, nil
	}
}

func enumeratedStringDomain() *ValueDomainSpec {
	return &ValueDomainSpec{
		Kind: DomainEnumerated,
		Columns: []CodeColumn{
			{Name: "code", Type: TypeString, Storage: true},
			{Name: "meaning", Type: TypeString},
		},
		Codes: []CodeRow{
			{Code: "RED", Meaning: "red"},
			{Code: "BLU", Meaning: "blue"},
		},
	}
}

func TestValidator_ValidateItem_NameRequired(t *testing.T) {
	v := &Validator{}

	_, err := v.ValidateItem(VariantDataSetDefinition, Attributes{Name: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name: required")
}

func TestValidator_ValidateItem_CollectsAllFields(t *testing.T) {
	v := &Validator{}

	_, err := v.ValidateItem(VariantDataElement, Attributes{
		Visibility: Visibility("secret"),
		Alternates: []AlternateDefinition{{Acceptability: Acceptability("maybe")}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	// Every failing field is reported together, not one at a time.
	require.GreaterOrEqual(t, len(verr.Fields), 4)
	require.Contains(t, verr.Fields, "name: required")
	require.Contains(t, verr.Fields, `visibility: unknown value "secret"`)
}

func TestValidator_ValidateItem_DefaultsVisibility(t *testing.T) {
	v := &Validator{}

	out, err := v.ValidateItem(VariantDataSetDefinition, Attributes{Name: "Persons"})
	require.NoError(t, err)
	require.Equal(t, VisibilityPublic, out.Visibility)
}

func TestValidator_ValidateForTransition_DefinitionRequired(t *testing.T) {
	v := &Validator{}

	_, err := v.ValidateForTransition(VariantDataSetDefinition, Attributes{Name: "Persons"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "definition: required before leaving candidate")

	_, err = v.ValidateForTransition(VariantDataSetDefinition, Attributes{
		Name: "Persons", Definition: "the set of registered persons",
	})
	require.NoError(t, err)
}

func TestValidator_ValidateItem_ExtensionSchema(t *testing.T) {
	v := &Validator{
		Schema: ExtensionSchema{
			"steward":  {Name: "steward", Type: TypeString, Required: true},
			"priority": {Name: "priority", Type: TypeNumber},
		},
	}

	t.Run("valid bag", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataSetDefinition, Attributes{
			Name: "Persons",
			Extensions: map[string]ExtensionValue{
				"steward":  StringValue("alice"),
				"priority": NumberValue(2),
			},
		})
		require.NoError(t, err)
	})

	t.Run("undeclared attribute", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataSetDefinition, Attributes{
			Name: "Persons",
			Extensions: map[string]ExtensionValue{
				"steward": StringValue("alice"),
				"color":   StringValue("red"),
			},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, `extensions: extension "color" is not declared in the registry schema`)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataSetDefinition, Attributes{
			Name: "Persons",
			Extensions: map[string]ExtensionValue{
				"steward":  StringValue("alice"),
				"priority": StringValue("high"),
			},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, `extensions: extension "priority" must be number, got string`)
	})

	t.Run("required missing", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataSetDefinition, Attributes{Name: "Persons"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, `extensions: extension "steward" is required`)
	})
}

func TestValidator_ValidateItem_DataElement(t *testing.T) {
	vd := NewFirstVersion("vd-1", VariantValueDomain, Attributes{
		Name:   "ColorCodes",
		Domain: enumeratedStringDomain(),
	})
	v := &Validator{Resolve: resolverFor(map[string]*Version{"vd-1": vd})}

	t.Run("valid element", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataElement, Attributes{
			Name: "AutomobileColor",
			Element: &DataElementSpec{
				Property:      "color",
				ValueDomainID: "vd-1",
				DataType:      TypeString,
			},
		})
		require.NoError(t, err)
	})

	t.Run("missing value domain reference", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataElement, Attributes{
			Name:    "AutomobileColor",
			Element: &DataElementSpec{Property: "color", DataType: TypeString},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "element.value_domain: exactly one value domain reference is required")
	})

	t.Run("unresolvable value domain", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataElement, Attributes{
			Name: "AutomobileColor",
			Element: &DataElementSpec{
				Property: "color", ValueDomainID: "nope", DataType: TypeString,
			},
		})
		require.Error(t, err)
	})

	t.Run("data type incompatible with storage column", func(t *testing.T) {
		_, err := v.ValidateItem(VariantDataElement, Attributes{
			Name: "AutomobileColor",
			Element: &DataElementSpec{
				Property: "color", ValueDomainID: "vd-1", DataType: TypeNumber,
			},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields,
			"element.data_type: number does not match the value domain storage column type string")
	})
}

func TestCheckValueDomain(t *testing.T) {
	t.Run("described needs a description", func(t *testing.T) {
		v := &Validator{}
		_, err := v.ValidateItem(VariantValueDomain, Attributes{
			Name:   "Ages",
			Domain: &ValueDomainSpec{Kind: DomainDescribed},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "domain.descriptions: at least one description is required")
	})

	t.Run("enumerated needs exactly one storage column", func(t *testing.T) {
		v := &Validator{}
		_, err := v.ValidateItem(VariantValueDomain, Attributes{
			Name: "ColorCodes",
			Domain: &ValueDomainSpec{
				Kind: DomainEnumerated,
				Columns: []CodeColumn{
					{Name: "code", Type: TypeString, Storage: true},
					{Name: "num", Type: TypeNumber, Storage: true},
				},
			},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "domain.columns: exactly one storage column is required, found 2")
	})

	t.Run("valid enumerated domain", func(t *testing.T) {
		v := &Validator{}
		_, err := v.ValidateItem(VariantValueDomain, Attributes{
			Name:   "ColorCodes",
			Domain: enumeratedStringDomain(),
		})
		require.NoError(t, err)
	})
}

func TestValidator_ValidateRelationship(t *testing.T) {
	dsd := NewFirstVersion("dsd-1", VariantDataSetDefinition, Attributes{Name: "Persons"})
	de := NewFirstVersion("de-1", VariantDataElement, Attributes{Name: "Age"})
	vd := NewFirstVersion("vd-1", VariantValueDomain, Attributes{Name: "Ages"})
	v := &Validator{Resolve: resolverFor(map[string]*Version{
		"dsd-1": dsd, "de-1": de, "vd-1": vd,
	})}

	valid := RelationshipAttributes{
		Name:        "contains",
		Definition:  "the set contains the element",
		Obligation:  ObligationMandatory,
		Cardinality: CardinalityMultiple,
	}

	t.Run("valid edge", func(t *testing.T) {
		out, err := v.ValidateRelationship("dsd-1", "de-1", valid)
		require.NoError(t, err)
		require.Equal(t, "contains", out.Name)
	})

	t.Run("source must be a data set definition", func(t *testing.T) {
		_, err := v.ValidateRelationship("de-1", "dsd-1", valid)
		require.Error(t, err)
	})

	t.Run("target must not be a value domain", func(t *testing.T) {
		_, err := v.ValidateRelationship("dsd-1", "vd-1", valid)
		require.Error(t, err)
	})

	t.Run("conditional requires a condition", func(t *testing.T) {
		attrs := valid
		attrs.Obligation = ObligationConditional
		_, err := v.ValidateRelationship("dsd-1", "de-1", attrs)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "condition: required when obligation is conditional")

		attrs.Condition = "only when the person is registered"
		_, err = v.ValidateRelationship("dsd-1", "de-1", attrs)
		require.NoError(t, err)
	})

	t.Run("condition forbidden otherwise", func(t *testing.T) {
		attrs := valid
		attrs.Condition = "stray"
		_, err := v.ValidateRelationship("dsd-1", "de-1", attrs)
		require.Error(t, err)
	})
}
