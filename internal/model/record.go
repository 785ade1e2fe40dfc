package model

import "encoding/json"

// OwnerShare is one entry of a multi-owner group.
type OwnerShare struct {
	Name  string `json:"name"`
	Share string `json:"share"`
}

// DedupeOwners removes repeated (name, share) pairs, keeping first-seen order.
func DedupeOwners(owners []OwnerShare) []OwnerShare {
	seen := make(map[OwnerShare]bool, len(owners))
	out := make([]OwnerShare, 0, len(owners))
	for _, o := range owners {
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

// MRZRecord holds the fields decoded from a machine-readable zone.
type MRZRecord struct {
	Layout      MRZLayout `json:"layout"`
	Lines       []string  `json:"lines"`
	Identifier  string    `json:"identifier"`
	Nationality string    `json:"nationality,omitempty"`
	DateOfBirth string    `json:"date_of_birth"`
	ExpiryDate  string    `json:"expiry_date"`
	Sex         string    `json:"sex"`
	FullName    string    `json:"full_name"`
}

// Value returns the MRZ counterpart of a cross-checked record field.
func (m *MRZRecord) Value(field string) (string, bool) {
	if m == nil {
		return "", false
	}
	switch field {
	case "date_of_birth":
		return m.DateOfBirth, true
	case "expiry_date":
		return m.ExpiryDate, true
	case "sex":
		return m.Sex, true
	default:
		return "", false
	}
}

// ValidationResult is the outcome of comparing one field across sources.
type ValidationResult string

// Validation results.
const (
	ValidationValid         ValidationResult = "valid"
	ValidationMismatch      ValidationResult = "mismatch"
	ValidationNotApplicable ValidationResult = "not_applicable"
)

// Document-level validation statuses.
const (
	StatusConsistent     = "consistent"
	StatusInconsistent   = "inconsistent"
	StatusUnverifiable   = "unverifiable"
	StatusMRZUnavailable = "mrz_unavailable"
)

// ValidationReport is the cross-validation outcome attached to a record.
type ValidationReport struct {
	Status string                      `json:"status"`
	Fields map[string]ValidationResult `json:"fields"`
}

// DocumentRecord is the structured output of one extraction run.
type DocumentRecord struct {
	DocType    DocumentType
	Fields     map[string]string
	Details    map[string]string
	Owners     []OwnerShare
	RawText    string
	MRZ        *MRZRecord
	Validation *ValidationReport
	// Unverified lists fields whose value matched no closed vocabulary entry.
	Unverified []string
}

// NewRecord builds a record with every schema key set to def.
func NewRecord(s Schema, def string) *DocumentRecord {
	r := &DocumentRecord{
		DocType: s.Type,
		Fields:  make(map[string]string),
	}
	for _, f := range s.Fields {
		if f.Group == GroupDetails {
			if r.Details == nil {
				r.Details = make(map[string]string)
			}
			r.Details[f.Key] = def
			continue
		}
		r.Fields[f.Key] = def
	}
	if s.HasOwners {
		r.Owners = []OwnerShare{}
	}
	return r
}

// Get returns a field value from the top level or the details group.
func (r *DocumentRecord) Get(key string) (string, bool) {
	if v, ok := r.Fields[key]; ok {
		return v, true
	}
	v, ok := r.Details[key]
	return v, ok
}

// Set writes a value into whichever group already holds key, falling back
// to the group given.
func (r *DocumentRecord) Set(key, value, group string) {
	if _, ok := r.Fields[key]; ok {
		r.Fields[key] = value
		return
	}
	if _, ok := r.Details[key]; ok {
		r.Details[key] = value
		return
	}
	if group == GroupDetails {
		if r.Details == nil {
			r.Details = make(map[string]string)
		}
		r.Details[key] = value
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// GroupOf reports which group holds key.
func (r *DocumentRecord) GroupOf(key string) string {
	if _, ok := r.Details[key]; ok {
		return GroupDetails
	}
	return GroupTop
}

// Flatten returns every scalar value keyed by its dotted path, suitable for
// tabular export.
func (r *DocumentRecord) Flatten() map[string]string {
	out := make(map[string]string, len(r.Fields)+len(r.Details))
	for k, v := range r.Fields {
		out[k] = v
	}
	for k, v := range r.Details {
		out[GroupDetails+"."+k] = v
	}
	if r.RawText != "" {
		out["raw_text"] = r.RawText
	}
	if r.Validation != nil {
		out["validation.status"] = r.Validation.Status
	}
	return out
}

// MarshalJSON flattens top-level fields into the object and nests the
// details group, owners list, MRZ block and validation report.
func (r DocumentRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+6)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.Details != nil {
		out[GroupDetails] = r.Details
	}
	if s, ok := SchemaFor(r.DocType); ok && s.HasOwners {
		owners := r.Owners
		if owners == nil {
			owners = []OwnerShare{}
		}
		out[OwnersKey] = owners
	}
	if r.DocType == DocRaw {
		out["raw_text"] = r.RawText
	}
	if r.MRZ != nil {
		out["mrz"] = r.MRZ
	}
	if r.Validation != nil {
		out["validation"] = r.Validation
	}
	if len(r.Unverified) > 0 {
		out["unverified"] = r.Unverified
	}
	return json.Marshal(out)
}
