package domain

// ValueDomainKind discriminates the two flavours of value domain.
type ValueDomainKind string

const (
	// DomainDescribed expresses the permissible values as free text.
	DomainDescribed ValueDomainKind = "described"

	// DomainEnumerated lists the permissible values as code rows.
	DomainEnumerated ValueDomainKind = "enumerated"
)

// IsValid returns true if the kind is recognized.
func (k ValueDomainKind) IsValid() bool {
	return k == DomainDescribed || k == DomainEnumerated
}

// CodeColumn is one column of an enumerated value domain. Exactly one
// column per domain is the storage column: the value a linked Data Element
// actually stores.
type CodeColumn struct {
	Name    string
	Type    ValueType
	Storage bool
}

// CodeRow is one permissible value of an enumerated domain. Cells are keyed
// by column name; the code and meaning fields are always present.
type CodeRow struct {
	Code    string
	Meaning string
	Cells   map[string]string
}

// ValueDomainSpec is the variant payload of a Value Domain item.
type ValueDomainSpec struct {
	Kind ValueDomainKind

	// Descriptions holds the free-text value set descriptions for a
	// described domain. At least one is required.
	Descriptions []string

	// Columns and Codes define an enumerated domain.
	Columns []CodeColumn
	Codes   []CodeRow

	// Ordered marks an enumerated domain whose code order is meaningful.
	Ordered bool
}

// StorageType returns the type of the designated storage column. The second
// return is false when the domain is not enumerated or no single storage
// column is designated.
func (d *ValueDomainSpec) StorageType() (ValueType, bool) {
	if d == nil || d.Kind != DomainEnumerated {
		return "", false
	}
	var (
		found bool
		typ   ValueType
	)
	for _, col := range d.Columns {
		if !col.Storage {
			continue
		}
		if found {
			return "", false // more than one storage column
		}
		found = true
		typ = col.Type
	}
	return typ, found
}

func (d *ValueDomainSpec) clone() *ValueDomainSpec {
	if d == nil {
		return nil
	}
	out := *d
	if d.Descriptions != nil {
		out.Descriptions = append([]string(nil), d.Descriptions...)
	}
	if d.Columns != nil {
		out.Columns = append([]CodeColumn(nil), d.Columns...)
	}
	if d.Codes != nil {
		out.Codes = make([]CodeRow, len(d.Codes))
		for i, row := range d.Codes {
			out.Codes[i] = row
			if row.Cells != nil {
				cells := make(map[string]string, len(row.Cells))
				for k, v := range row.Cells {
					cells[k] = v
				}
				out.Codes[i].Cells = cells
			}
		}
	}
	return &out
}

// DataElementSpec is the variant payload of a Data Element item: one
// Property observed on one Object Class, stored in one Value Domain.
type DataElementSpec struct {
	ObjectClass   string
	Property      string
	ValueDomainID string
	DataType      ValueType
	Format        string
	MaxSize       int
}
