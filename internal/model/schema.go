package model

// MRZLayout identifies a machine-readable zone format.
type MRZLayout string

// Supported MRZ layouts.
const (
	MRZNone MRZLayout = ""
	MRZTD1  MRZLayout = "TD1"
	MRZTD3  MRZLayout = "TD3"
)

// Lines returns the number of MRZ lines the layout requires.
func (l MRZLayout) Lines() int {
	switch l {
	case MRZTD1:
		return 3
	case MRZTD3:
		return 2
	default:
		return 0
	}
}

// Field groups.
const (
	GroupTop     = ""
	GroupDetails = "details"
)

// OwnersKey is the record key of the repeated owner/share group.
const OwnersKey = "owners_and_shares"

// FieldSpec describes one key of a document schema.
type FieldSpec struct {
	Key        string
	Group      string
	Numeric    bool
	Vocabulary bool
	Identifier bool
	Date       bool
}

// Schema is the fixed output shape of a document type.
type Schema struct {
	Type      DocumentType
	Fields    []FieldSpec
	HasOwners bool
	MRZ       MRZLayout
	// Deed selects the punctuation-tolerant normalizer profile.
	Deed bool
}

// Keys returns every field key in schema order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Field returns the FieldSpec for key.
func (s Schema) Field(key string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// CrossCheckedFields are compared between visual text and the MRZ.
var CrossCheckedFields = []string{"date_of_birth", "expiry_date"}

var schemas = map[DocumentType]Schema{
	DocIDCard: {
		Type: DocIDCard,
		Fields: []FieldSpec{
			{Key: "country"},
			{Key: "authority"},
			{Key: "card_type"},
			{Key: "name", Group: GroupDetails},
			{Key: "date_of_birth", Group: GroupDetails, Date: true},
			{Key: "issuing_date", Group: GroupDetails, Date: true},
			{Key: "expiry_date", Group: GroupDetails, Date: true},
			{Key: "nationality", Group: GroupDetails, Vocabulary: true},
			{Key: "id_number", Group: GroupDetails, Identifier: true},
			{Key: "sex", Group: GroupDetails},
		},
		MRZ: MRZTD1,
	},
	DocPassport: {
		Type: DocPassport,
		Fields: []FieldSpec{
			{Key: "country"},
			{Key: "authority"},
			{Key: "document_type"},
			{Key: "name", Group: GroupDetails},
			{Key: "passport_number", Group: GroupDetails},
			{Key: "nationality", Group: GroupDetails, Vocabulary: true},
			{Key: "date_of_birth", Group: GroupDetails, Date: true},
			{Key: "place_of_birth", Group: GroupDetails},
			{Key: "issuing_date", Group: GroupDetails, Date: true},
			{Key: "expiry_date", Group: GroupDetails, Date: true},
			{Key: "sex", Group: GroupDetails},
		},
		MRZ: MRZTD3,
	},
	DocTitleDeed: {
		Type: DocTitleDeed,
		Fields: []FieldSpec{
			{Key: "issue_date", Date: true},
			{Key: "mortgage_status"},
			{Key: "property_type"},
			{Key: "community"},
			{Key: "plot_no"},
			{Key: "municipality_no"},
			{Key: "building_no"},
			{Key: "building_name"},
			{Key: "property_no"},
			{Key: "floor_no"},
			{Key: "parkings"},
			{Key: "suite_area", Numeric: true},
			{Key: "balcony_area", Numeric: true},
			{Key: "area_sq_meter", Numeric: true},
			{Key: "area_sq_feet", Numeric: true},
			{Key: "common_area", Numeric: true},
		},
		HasOwners: true,
		Deed:      true,
	},
	DocCommercialLicense: {
		Type: DocCommercialLicense,
		Fields: []FieldSpec{
			{Key: "license_no"},
			{Key: "company_name"},
			{Key: "trade_name"},
			{Key: "legal_type"},
			{Key: "issue_date", Date: true},
			{Key: "expiry_date", Date: true},
			{Key: "activities"},
			{Key: "address"},
		},
		HasOwners: true,
		Deed:      true,
	},
	DocRaw: {
		Type: DocRaw,
	},
}

// SchemaFor returns the schema of a document type.
func SchemaFor(dt DocumentType) (Schema, bool) {
	s, ok := schemas[dt]
	return s, ok
}
