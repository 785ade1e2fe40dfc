package extract

import (
	"regexp"

	"github.com/sells-group/docextract/internal/model"
)

// Rule selects how an anchor pulls its value out of a line.
type Rule int

const (
	// RuleText takes the colon suffix, or the text after the keyword.
	RuleText Rule = iota
	// RulePattern takes the first match of the anchor's pattern.
	RulePattern
	// RuleFixed emits a constant value when the keyword is present.
	RuleFixed
	// RuleSex maps m/male/f/female tokens to M or F.
	RuleSex
)

// Anchor binds a set of keywords to a record field.
type Anchor struct {
	Field    string
	Keywords []string
	Rule     Rule
	Pattern  *regexp.Regexp
	Fixed    string
	// Strip removes a keyword prefix pattern instead of cutting at the keyword.
	Strip *regexp.Regexp
	// Lookahead is how many following lines may hold a wrapped value.
	Lookahead int
	// Multi emits one candidate per matching line instead of stopping at the first.
	Multi     bool
	TitleCase bool
	// Exclusive stops the scan of a line once this anchor has matched it.
	Exclusive bool
	Remove    []string
}

// OwnersAnchor marks the start of a repeated owner/share block.
type OwnersAnchor struct {
	Keywords []string
	Remove   []string
	MaxLines int
}

// Table is the anchor set of one document type.
type Table struct {
	Type    model.DocumentType
	Anchors []Anchor
	Owners  *OwnersAnchor
}

var (
	datePattern    = regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{4}|\b\d{1,2} ?[A-Za-z]{3,}(?: ?/ ?[A-Za-z]{3,})? ?\d{4}\b`)
	passportNumber = regexp.MustCompile(`\b[A-Z0-9]{6,9}\b`)
	licenseNumber  = regexp.MustCompile(`\b[A-Z0-9][A-Z0-9\-/]{3,}\b`)
	nameLabel      = regexp.MustCompile(`(?i)name[:\s]*`)
	nationality    = regexp.MustCompile(`(?i)nationality[:\s]*`)
)

const uaeAuthority = "Federal Authority for Identity & Citizenship, Customs & Port Security"

var tables = map[model.DocumentType]Table{
	model.DocIDCard: {
		Type: model.DocIDCard,
		Anchors: []Anchor{
			{Field: "country", Keywords: []string{"united arab emirates", "الإمارات العربية المتحدة"}, Rule: RuleFixed, Fixed: "United Arab Emirates"},
			{Field: "authority", Keywords: []string{"federal authority", "الهيئة الاتحادية"}, Rule: RuleFixed, Fixed: uaeAuthority},
			{Field: "card_type", Keywords: []string{"golden card", "البطاقة الذهبية"}, Rule: RuleFixed, Fixed: "Golden Card"},
			{Field: "name", Keywords: []string{"name:"}, Rule: RuleText, Strip: nameLabel, Multi: true},
			{Field: "date_of_birth", Keywords: []string{"date of birth", "تاريخ الميلاد"}, Rule: RulePattern, Pattern: datePattern},
			{Field: "issuing_date", Keywords: []string{"issuing", "issue date", "تاريخ الإصدار"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 1},
			{Field: "expiry_date", Keywords: []string{"expiry", "exp", "valid until", "expire", "تاريخ الانتهاء"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 2},
			{Field: "nationality", Keywords: []string{"nationality", "الجنسية"}, Rule: RuleText, Strip: nationality, Multi: true, TitleCase: true},
			{Field: "sex", Keywords: []string{"sex", "gender", "الجنس"}, Rule: RuleSex},
		},
	},
	model.DocPassport: {
		Type: model.DocPassport,
		Anchors: []Anchor{
			{Field: "document_type", Keywords: []string{"passport", "جواز سفر"}, Rule: RuleFixed, Fixed: "Passport"},
			{Field: "country", Keywords: []string{"issuing country", "country code", "country"}, Rule: RuleText},
			{Field: "authority", Keywords: []string{"issuing authority", "authority", "place of issue"}, Rule: RuleText},
			{Field: "name", Keywords: []string{"name:"}, Rule: RuleText, Strip: nameLabel, Multi: true},
			{Field: "passport_number", Keywords: []string{"passport no", "passport number", "document no", "رقم الجواز"}, Rule: RulePattern, Pattern: passportNumber, Lookahead: 1},
			{Field: "nationality", Keywords: []string{"nationality", "الجنسية"}, Rule: RuleText, Strip: nationality, Multi: true, TitleCase: true},
			{Field: "date_of_birth", Keywords: []string{"date of birth", "birth date", "تاريخ الميلاد"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 1},
			{Field: "place_of_birth", Keywords: []string{"place of birth", "مكان الميلاد"}, Rule: RuleText, Lookahead: 1},
			{Field: "issuing_date", Keywords: []string{"date of issue", "issue date", "issuing date", "تاريخ الإصدار"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 1},
			{Field: "expiry_date", Keywords: []string{"date of expiry", "expiry date", "expiry", "valid until", "تاريخ الانتهاء"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 2},
			{Field: "sex", Keywords: []string{"sex", "gender", "الجنس"}, Rule: RuleSex},
		},
	},
	model.DocTitleDeed: {
		Type: model.DocTitleDeed,
		Anchors: []Anchor{
			{Field: "issue_date", Keywords: []string{"issue date", "تاريخ الإصدار"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 1},
			{Field: "mortgage_status", Keywords: []string{"mortgage status", "حالة الرهن"}, Lookahead: 1, Exclusive: true, Remove: []string{"Mortgage Status"}},
			{Field: "property_type", Keywords: []string{"property type", "نوع العقار"}, Lookahead: 1, Exclusive: true, Remove: []string{"Property Type"}},
			{Field: "community", Keywords: []string{"community", "المنطقة"}, Lookahead: 1, Exclusive: true},
			{Field: "plot_no", Keywords: []string{"plot no", "رقم الأرض"}, Lookahead: 1, Exclusive: true},
			{Field: "municipality_no", Keywords: []string{"municipality no", "رقم البلدية"}, Lookahead: 1, Exclusive: true, Remove: []string{"-"}},
			{Field: "building_no", Keywords: []string{"building no", "رقم المبنى"}, Lookahead: 1, Exclusive: true},
			{Field: "building_name", Keywords: []string{"building name", "اسم المبنى"}, Lookahead: 1, Exclusive: true, Remove: []string{"-"}},
			{Field: "property_no", Keywords: []string{"property no", "رقم العقار"}, Lookahead: 1, Exclusive: true},
			{Field: "floor_no", Keywords: []string{"floor no", "رقم الطابق"}, Lookahead: 1, Exclusive: true},
			{Field: "parkings", Keywords: []string{"parkings", "المواقف"}, Lookahead: 1, Exclusive: true},
			{Field: "suite_area", Keywords: []string{"suite area", "المساحة الداخلية"}, Lookahead: 1, Exclusive: true},
			{Field: "balcony_area", Keywords: []string{"balcony area", "مساحة البلكونة"}, Lookahead: 1, Exclusive: true},
			{Field: "area_sq_meter", Keywords: []string{"area sq meter", "المساحة الكلية متر مربع", "المساحة الكلية مثر مربع"}, Lookahead: 1, Exclusive: true},
			{Field: "area_sq_feet", Keywords: []string{"area sq feet", "المساحة الكلية بالقدم المربع"}, Lookahead: 1, Exclusive: true},
			{Field: "common_area", Keywords: []string{"common area", "المساحة المشتركة"}, Lookahead: 1, Exclusive: true, Remove: []string{"wall"}},
		},
		Owners: &OwnersAnchor{
			Keywords: []string{"owners and their shares", "أسماء الملاك وحصصهم", "أسماء الملاك وحخصصهم"},
			Remove:   []string{"wall"},
			MaxLines: 20,
		},
	},
	model.DocCommercialLicense: {
		Type: model.DocCommercialLicense,
		Anchors: []Anchor{
			{Field: "license_no", Keywords: []string{"license no", "licence no", "license number", "رقم الرخصة"}, Rule: RulePattern, Pattern: licenseNumber, Lookahead: 1, Exclusive: true},
			{Field: "company_name", Keywords: []string{"company name", "اسم الشركة"}, Lookahead: 1, Exclusive: true},
			{Field: "trade_name", Keywords: []string{"trade name", "الاسم التجاري"}, Lookahead: 1, Exclusive: true},
			{Field: "legal_type", Keywords: []string{"legal type", "legal form", "الشكل القانوني"}, Lookahead: 1, Exclusive: true},
			{Field: "issue_date", Keywords: []string{"issue date", "تاريخ الإصدار"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 1, Exclusive: true},
			{Field: "expiry_date", Keywords: []string{"expiry date", "تاريخ الانتهاء"}, Rule: RulePattern, Pattern: datePattern, Lookahead: 1, Exclusive: true},
			{Field: "activities", Keywords: []string{"activities", "activity", "الأنشطة", "النشاط"}, Lookahead: 1, Exclusive: true},
			{Field: "address", Keywords: []string{"address", "العنوان"}, Lookahead: 1, Exclusive: true},
		},
		Owners: &OwnersAnchor{
			Keywords: []string{"owners", "partners", "الشركاء", "الملاك"},
			MaxLines: 20,
		},
	},
	model.DocRaw: {Type: model.DocRaw},
}

// TableFor returns the anchor table of a document type.
func TableFor(dt model.DocumentType) (Table, bool) {
	t, ok := tables[dt]
	return t, ok
}
