package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	registry "github.com/registra-io/registra/internal/registry/domain"
)

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
attributes:
  - name: steward
    type: string
    required: true
  - name: review_due
    type: date
  - name: record_count
    type: number
`))
	require.NoError(t, err)
	require.Len(t, s, 3)
	require.Equal(t, registry.ExtensionField{Name: "steward", Type: registry.TypeString, Required: true}, s["steward"])
	require.Equal(t, registry.TypeDate, s["review_due"].Type)
	require.False(t, s["review_due"].Required)
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse([]byte(""))
	require.NoError(t, err)
	require.Empty(t, s)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "attributes:\n  - type: string\n",
			want: "name is required",
		},
		{
			name: "unknown type",
			yaml: "attributes:\n  - name: steward\n    type: uuid\n",
			want: `unknown type "uuid"`,
		},
		{
			name: "duplicate attribute",
			yaml: "attributes:\n  - name: steward\n    type: string\n  - name: steward\n    type: string\n",
			want: "declared twice",
		},
		{
			name: "not yaml",
			yaml: "{{nope",
			want: "parse schema",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attributes:\n  - name: steward\n    type: string\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, s, "steward")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	require.Empty(t, h.Current())

	next := registry.ExtensionSchema{
		"steward": {Name: "steward", Type: registry.TypeString},
	}
	h.Replace(next)
	require.Equal(t, next, h.Current())
}
