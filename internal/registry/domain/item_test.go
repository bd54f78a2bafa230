package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFirstVersion(t *testing.T) {
	v := NewFirstVersion("item-1", VariantDataElement, Attributes{Name: "AutomobileColor"})

	require.Equal(t, "item-1", v.ItemID())
	require.Equal(t, VariantDataElement, v.Variant())
	require.Equal(t, 1, v.Number())
	require.Equal(t, StatusCandidate, v.Status())
	require.Nil(t, v.RequestedStatus())
	require.Equal(t, "AutomobileColor", v.Name())
}

func TestVersion_Successor(t *testing.T) {
	v1 := NewFirstVersion("item-1", VariantDataElement, Attributes{Name: "A", Definition: "first"})
	v2 := v1.Successor(Attributes{Name: "A", Definition: "second"})

	require.Equal(t, v1.ItemID(), v2.ItemID())
	require.Equal(t, v1.Variant(), v2.Variant())
	require.Equal(t, 2, v2.Number())
	require.Equal(t, v1.Status(), v2.Status())
	require.Equal(t, "second", v2.Attributes().Definition)
	// The predecessor snapshot is untouched.
	require.Equal(t, "first", v1.Attributes().Definition)
}

func TestVersion_Successor_CarriesPendingMarker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	target := StatusRecorded
	v1 := ReconstituteVersion("item-1", VariantDataElement, 1, StatusCandidate, &target,
		"", Attributes{Name: "A", Definition: "first"}, now, now)

	v2 := v1.Successor(Attributes{Name: "A", Definition: "second"})
	require.NotNil(t, v2.RequestedStatus(), "revision must not drop the pending transition")
	require.Equal(t, StatusRecorded, *v2.RequestedStatus())

	// The successor holds its own copy of the marker.
	v2.ClearRequestedStatus()
	require.NotNil(t, v1.RequestedStatus())
}

func TestVersion_SuccessorWithStatus(t *testing.T) {
	v1 := NewFirstVersion("item-1", VariantDataElement, Attributes{Name: "A"})
	v2 := v1.SuccessorWithStatus(StatusRecorded, "approved by authority")

	require.Equal(t, StatusRecorded, v2.Status())
	require.Equal(t, "approved by authority", v2.Rationale())
	require.Equal(t, v1.Attributes().Name, v2.Attributes().Name)
}

func TestVersion_SuccessorWithStatus_ResolvesPendingMarker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	target := StatusRecorded
	v1 := ReconstituteVersion("item-1", VariantDataElement, 1, StatusCandidate, &target,
		"", Attributes{Name: "A"}, now, now)

	v2 := v1.SuccessorWithStatus(StatusRecorded, "complete")
	require.Nil(t, v2.RequestedStatus(), "a decision resolves the pending transition")
}

func TestVersion_AttributesSnapshotIsolation(t *testing.T) {
	attrs := Attributes{
		Name: "A",
		Tags: []string{"one"},
		Extensions: map[string]ExtensionValue{
			"steward": StringValue("alice"),
		},
	}
	v := NewFirstVersion("item-1", VariantDataSetDefinition, attrs)

	// Mutating the caller's copy must not leak into the snapshot.
	attrs.Tags[0] = "mutated"
	attrs.Extensions["steward"] = StringValue("bob")

	got := v.Attributes()
	require.Equal(t, "one", got.Tags[0])
	require.Equal(t, "alice", got.Extensions["steward"].String)

	// And mutating the getter result must not leak back either.
	got.Tags[0] = "mutated-again"
	require.Equal(t, "one", v.Attributes().Tags[0])
}

