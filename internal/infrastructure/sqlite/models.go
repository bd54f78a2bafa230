package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	registry "github.com/registra-io/registra/internal/registry/domain"
	workflow "github.com/registra-io/registra/internal/workflow/domain"
)

// VersionModel represents a database row of the versions table.
// Time values map to Unix timestamps; the attribute snapshot is JSON.
type VersionModel struct {
	ItemID          string
	Variant         string
	Number          int
	Status          string
	RequestedStatus *string // nullable
	Rationale       string
	Attrs           string // JSON encoded
	CreatedAt       int64  // Unix timestamp
	UpdatedAt       int64  // Unix timestamp
}

// attrsDoc is the JSON document stored in versions.attrs. It mirrors
// registry.Attributes field by field so the domain types stay free of
// serialization tags.
type attrsDoc struct {
	Name            string              `json:"name"`
	Context         string              `json:"context,omitempty"`
	Definition      string              `json:"definition,omitempty"`
	Tags            []string            `json:"tags,omitempty"`
	Visibility      string              `json:"visibility,omitempty"`
	Origin          string              `json:"origin,omitempty"`
	UsageNotes      string              `json:"usage_notes,omitempty"`
	CollectionNotes string              `json:"collection_notes,omitempty"`
	Extensions      map[string]valueDoc `json:"extensions,omitempty"`
	Alternates      []alternateDoc      `json:"alternates,omitempty"`
	Element         *elementDoc         `json:"element,omitempty"`
	Domain          *valueDomainDoc     `json:"domain,omitempty"`
}

type valueDoc struct {
	Type    string     `json:"type"`
	String  string     `json:"string,omitempty"`
	Number  float64    `json:"number,omitempty"`
	Boolean bool       `json:"boolean,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
}

type alternateDoc struct {
	Context       string `json:"context,omitempty"`
	Name          string `json:"name,omitempty"`
	Definition    string `json:"definition,omitempty"`
	Language      string `json:"language,omitempty"`
	Acceptability string `json:"acceptability"`
}

type elementDoc struct {
	ObjectClass   string `json:"object_class,omitempty"`
	Property      string `json:"property"`
	ValueDomainID string `json:"value_domain_id"`
	DataType      string `json:"data_type"`
	Format        string `json:"format,omitempty"`
	MaxSize       int    `json:"max_size,omitempty"`
}

type valueDomainDoc struct {
	Kind         string            `json:"kind"`
	Descriptions []string          `json:"descriptions,omitempty"`
	Columns      []codeColumnDoc   `json:"columns,omitempty"`
	Codes        []codeRowDoc      `json:"codes,omitempty"`
	Ordered      bool              `json:"ordered,omitempty"`
}

type codeColumnDoc struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Storage bool   `json:"storage,omitempty"`
}

type codeRowDoc struct {
	Code    string            `json:"code"`
	Meaning string            `json:"meaning,omitempty"`
	Cells   map[string]string `json:"cells,omitempty"`
}

func encodeAttrs(a registry.Attributes) (string, error) {
	doc := attrsDoc{
		Name:            a.Name,
		Context:         a.Context,
		Definition:      a.Definition,
		Tags:            a.Tags,
		Visibility:      string(a.Visibility),
		Origin:          a.Origin,
		UsageNotes:      a.UsageNotes,
		CollectionNotes: a.CollectionNotes,
	}
	if len(a.Extensions) > 0 {
		doc.Extensions = make(map[string]valueDoc, len(a.Extensions))
		for k, v := range a.Extensions {
			doc.Extensions[k] = encodeValue(v)
		}
	}
	for _, alt := range a.Alternates {
		doc.Alternates = append(doc.Alternates, alternateDoc{
			Context:       alt.Context,
			Name:          alt.Name,
			Definition:    alt.Definition,
			Language:      alt.Language,
			Acceptability: string(alt.Acceptability),
		})
	}
	if a.Element != nil {
		doc.Element = &elementDoc{
			ObjectClass:   a.Element.ObjectClass,
			Property:      a.Element.Property,
			ValueDomainID: a.Element.ValueDomainID,
			DataType:      string(a.Element.DataType),
			Format:        a.Element.Format,
			MaxSize:       a.Element.MaxSize,
		}
	}
	if a.Domain != nil {
		vd := &valueDomainDoc{
			Kind:         string(a.Domain.Kind),
			Descriptions: a.Domain.Descriptions,
			Ordered:      a.Domain.Ordered,
		}
		for _, col := range a.Domain.Columns {
			vd.Columns = append(vd.Columns, codeColumnDoc{Name: col.Name, Type: string(col.Type), Storage: col.Storage})
		}
		for _, row := range a.Domain.Codes {
			vd.Codes = append(vd.Codes, codeRowDoc{Code: row.Code, Meaning: row.Meaning, Cells: row.Cells})
		}
		doc.Domain = vd
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(data), nil
}

func decodeAttrs(raw string) (registry.Attributes, error) {
	var doc attrsDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return registry.Attributes{}, fmt.Errorf("decode attributes: %w", err)
	}

	out := registry.Attributes{
		Name:            doc.Name,
		Context:         doc.Context,
		Definition:      doc.Definition,
		Tags:            doc.Tags,
		Visibility:      registry.Visibility(doc.Visibility),
		Origin:          doc.Origin,
		UsageNotes:      doc.UsageNotes,
		CollectionNotes: doc.CollectionNotes,
	}
	if len(doc.Extensions) > 0 {
		out.Extensions = make(map[string]registry.ExtensionValue, len(doc.Extensions))
		for k, v := range doc.Extensions {
			out.Extensions[k] = decodeValue(v)
		}
	}
	for _, alt := range doc.Alternates {
		out.Alternates = append(out.Alternates, registry.AlternateDefinition{
			Context:       alt.Context,
			Name:          alt.Name,
			Definition:    alt.Definition,
			Language:      alt.Language,
			Acceptability: registry.Acceptability(alt.Acceptability),
		})
	}
	if doc.Element != nil {
		out.Element = &registry.DataElementSpec{
			ObjectClass:   doc.Element.ObjectClass,
			Property:      doc.Element.Property,
			ValueDomainID: doc.Element.ValueDomainID,
			DataType:      registry.ValueType(doc.Element.DataType),
			Format:        doc.Element.Format,
			MaxSize:       doc.Element.MaxSize,
		}
	}
	if doc.Domain != nil {
		vd := &registry.ValueDomainSpec{
			Kind:         registry.ValueDomainKind(doc.Domain.Kind),
			Descriptions: doc.Domain.Descriptions,
			Ordered:      doc.Domain.Ordered,
		}
		for _, col := range doc.Domain.Columns {
			vd.Columns = append(vd.Columns, registry.CodeColumn{Name: col.Name, Type: registry.ValueType(col.Type), Storage: col.Storage})
		}
		for _, row := range doc.Domain.Codes {
			vd.Codes = append(vd.Codes, registry.CodeRow{Code: row.Code, Meaning: row.Meaning, Cells: row.Cells})
		}
		out.Domain = vd
	}
	return out, nil
}

func encodeValue(v registry.ExtensionValue) valueDoc {
	doc := valueDoc{Type: string(v.Type)}
	switch v.Type {
	case registry.TypeString:
		doc.String = v.String
	case registry.TypeNumber:
		doc.Number = v.Number
	case registry.TypeBoolean:
		doc.Boolean = v.Boolean
	case registry.TypeDate:
		d := v.Date
		doc.Date = &d
	}
	return doc
}

func decodeValue(doc valueDoc) registry.ExtensionValue {
	v := registry.ExtensionValue{Type: registry.ValueType(doc.Type)}
	switch v.Type {
	case registry.TypeString:
		v.String = doc.String
	case registry.TypeNumber:
		v.Number = doc.Number
	case registry.TypeBoolean:
		v.Boolean = doc.Boolean
	case registry.TypeDate:
		if doc.Date != nil {
			v.Date = *doc.Date
		}
	}
	return v
}

// toVersionModel converts a domain Version to a database row.
func toVersionModel(v *registry.Version) (*VersionModel, error) {
	attrs, err := encodeAttrs(v.Attributes())
	if err != nil {
		return nil, err
	}
	m := &VersionModel{
		ItemID:    v.ItemID(),
		Variant:   string(v.Variant()),
		Number:    v.Number(),
		Status:    string(v.Status()),
		Rationale: v.Rationale(),
		Attrs:     attrs,
		CreatedAt: v.CreatedAt().Unix(),
		UpdatedAt: v.UpdatedAt().Unix(),
	}
	if rs := v.RequestedStatus(); rs != nil {
		s := string(*rs)
		m.RequestedStatus = &s
	}
	return m, nil
}

// toDomain converts a database row to a domain Version.
func (m *VersionModel) toDomain() (*registry.Version, error) {
	attrs, err := decodeAttrs(m.Attrs)
	if err != nil {
		return nil, err
	}
	var requested *registry.RegistrationStatus
	if m.RequestedStatus != nil {
		rs := registry.RegistrationStatus(*m.RequestedStatus)
		requested = &rs
	}
	return registry.ReconstituteVersion(
		m.ItemID,
		registry.Variant(m.Variant),
		m.Number,
		registry.RegistrationStatus(m.Status),
		requested,
		m.Rationale,
		attrs,
		time.Unix(m.CreatedAt, 0).UTC(),
		time.Unix(m.UpdatedAt, 0).UTC(),
	), nil
}

// RelationshipModel represents a database row of the relationships table.
type RelationshipModel struct {
	ID        string
	SourceID  string
	TargetID  string
	Name      string
	Attrs     string // JSON encoded
	CreatedAt int64  // Unix timestamp
}

// relAttrsDoc is the JSON document stored in relationships.attrs.
type relAttrsDoc struct {
	Name        string              `json:"name"`
	Definition  string              `json:"definition"`
	Obligation  string              `json:"obligation"`
	Condition   string              `json:"condition,omitempty"`
	Cardinality string              `json:"cardinality"`
	Notes       string              `json:"notes,omitempty"`
	Extensions  map[string]valueDoc `json:"extensions,omitempty"`
}

func toRelationshipModel(r *registry.Relationship) (*RelationshipModel, error) {
	attrs := r.Attributes()
	doc := relAttrsDoc{
		Name:        attrs.Name,
		Definition:  attrs.Definition,
		Obligation:  string(attrs.Obligation),
		Condition:   attrs.Condition,
		Cardinality: string(attrs.Cardinality),
		Notes:       attrs.Notes,
	}
	if len(attrs.Extensions) > 0 {
		doc.Extensions = make(map[string]valueDoc, len(attrs.Extensions))
		for k, v := range attrs.Extensions {
			doc.Extensions[k] = encodeValue(v)
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode relationship attributes: %w", err)
	}
	return &RelationshipModel{
		ID:        r.ID(),
		SourceID:  r.SourceID(),
		TargetID:  r.TargetID(),
		Name:      attrs.Name,
		Attrs:     string(data),
		CreatedAt: r.CreatedAt().Unix(),
	}, nil
}

func (m *RelationshipModel) toDomain() (*registry.Relationship, error) {
	var doc relAttrsDoc
	if err := json.Unmarshal([]byte(m.Attrs), &doc); err != nil {
		return nil, fmt.Errorf("decode relationship attributes: %w", err)
	}
	attrs := registry.RelationshipAttributes{
		Name:        doc.Name,
		Definition:  doc.Definition,
		Obligation:  registry.Obligation(doc.Obligation),
		Condition:   doc.Condition,
		Cardinality: registry.Cardinality(doc.Cardinality),
		Notes:       doc.Notes,
	}
	if len(doc.Extensions) > 0 {
		attrs.Extensions = make(map[string]registry.ExtensionValue, len(doc.Extensions))
		for k, v := range doc.Extensions {
			attrs.Extensions[k] = decodeValue(v)
		}
	}
	return registry.ReconstituteRelationship(
		m.ID, m.SourceID, m.TargetID, attrs, time.Unix(m.CreatedAt, 0).UTC(),
	), nil
}

// RequestModel represents a database row of the requests table.
type RequestModel struct {
	ID           string
	ItemID       string
	TargetStatus string
	Proposer     string
	State        string
	Outcome      *string // nullable
	Rationale    string
	CloseReason  *string // nullable
	Commissions  *string // nullable, JSON encoded
	OpenedAt     int64   // Unix timestamp
	DecidedAt    *int64  // Unix timestamp, nullable
	ClosedAt     *int64  // Unix timestamp, nullable
	UpdatedAt    int64   // Unix timestamp
}

func toRequestModel(r *workflow.ApprovalRequest) *RequestModel {
	m := &RequestModel{
		ID:           r.ID(),
		ItemID:       r.ItemID(),
		TargetStatus: string(r.TargetStatus()),
		Proposer:     r.Proposer(),
		State:        string(r.State()),
		Rationale:    r.Rationale(),
		OpenedAt:     r.OpenedAt().Unix(),
		UpdatedAt:    r.UpdatedAt().Unix(),
	}
	if r.Outcome() != "" {
		o := string(r.Outcome())
		m.Outcome = &o
	}
	if r.CloseReason() != "" {
		cr := string(r.CloseReason())
		m.CloseReason = &cr
	}
	if commissions := r.Commissions(); len(commissions) > 0 {
		if data, err := json.Marshal(commissions); err == nil {
			s := string(data)
			m.Commissions = &s
		}
	}
	if t := r.DecidedAt(); t != nil {
		unix := t.Unix()
		m.DecidedAt = &unix
	}
	if t := r.ClosedAt(); t != nil {
		unix := t.Unix()
		m.ClosedAt = &unix
	}
	return m
}

func (m *RequestModel) toDomain() *workflow.ApprovalRequest {
	var outcome workflow.Outcome
	if m.Outcome != nil {
		outcome = workflow.Outcome(*m.Outcome)
	}
	var closeReason workflow.CloseReason
	if m.CloseReason != nil {
		closeReason = workflow.CloseReason(*m.CloseReason)
	}
	var commissions []string
	if m.Commissions != nil {
		_ = json.Unmarshal([]byte(*m.Commissions), &commissions)
	}
	var decidedAt, closedAt *time.Time
	if m.DecidedAt != nil {
		t := time.Unix(*m.DecidedAt, 0).UTC()
		decidedAt = &t
	}
	if m.ClosedAt != nil {
		t := time.Unix(*m.ClosedAt, 0).UTC()
		closedAt = &t
	}
	return workflow.ReconstituteRequest(
		m.ID,
		m.ItemID,
		registry.RegistrationStatus(m.TargetStatus),
		m.Proposer,
		workflow.RequestState(m.State),
		outcome,
		m.Rationale,
		closeReason,
		commissions,
		time.Unix(m.OpenedAt, 0).UTC(),
		decidedAt,
		closedAt,
		time.Unix(m.UpdatedAt, 0).UTC(),
	)
}

// OpinionModel represents a database row of the opinions table.
type OpinionModel struct {
	RequestID    string
	CommissionID string
	MemberID     string
	Value        string
	Comment      string
	SubmittedAt  int64 // Unix timestamp
}

func toOpinionModel(o *workflow.Opinion) *OpinionModel {
	return &OpinionModel{
		RequestID:    o.RequestID,
		CommissionID: o.CommissionID,
		MemberID:     o.MemberID,
		Value:        string(o.Value),
		Comment:      o.Comment,
		SubmittedAt:  o.SubmittedAt.Unix(),
	}
}

func (m *OpinionModel) toDomain() *workflow.Opinion {
	return &workflow.Opinion{
		RequestID:    m.RequestID,
		CommissionID: m.CommissionID,
		MemberID:     m.MemberID,
		Value:        workflow.OpinionValue(m.Value),
		Comment:      m.Comment,
		SubmittedAt:  time.Unix(m.SubmittedAt, 0).UTC(),
	}
}
