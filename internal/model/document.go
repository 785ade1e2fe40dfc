package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DocumentType selects the extraction schema applied to a document.
type DocumentType string

// Supported document types.
const (
	DocIDCard            DocumentType = "id_card"
	DocPassport          DocumentType = "passport"
	DocTitleDeed         DocumentType = "title_deed"
	DocCommercialLicense DocumentType = "commercial_license"
	DocRaw               DocumentType = "raw"
)

// ErrUnsupportedDocumentType is returned when a selector names no known schema.
var ErrUnsupportedDocumentType = eris.New("unsupported document type")

// documentAliases maps accepted selector spellings to their document type.
var documentAliases = map[string]DocumentType{
	"id_card":            DocIDCard,
	"idcard":             DocIDCard,
	"id":                 DocIDCard,
	"emirates_id":        DocIDCard,
	"passport":           DocPassport,
	"title_deed":         DocTitleDeed,
	"titledeed":          DocTitleDeed,
	"deed":               DocTitleDeed,
	"commercial_license": DocCommercialLicense,
	"trade_license":      DocCommercialLicense,
	"license":            DocCommercialLicense,
	"raw":                DocRaw,
	"raw_text":           DocRaw,
}

// AllDocumentTypes lists every document type in a stable order.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{DocIDCard, DocPassport, DocTitleDeed, DocCommercialLicense, DocRaw}
}

// ParseDocumentType resolves a selector into a DocumentType. Matching is
// case-insensitive and treats hyphens and spaces as underscores.
func ParseDocumentType(s string) (DocumentType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if dt, ok := documentAliases[key]; ok {
		return dt, nil
	}
	return "", eris.Wrapf(ErrUnsupportedDocumentType, "model: parse document type %q", s)
}

// String implements fmt.Stringer.
func (d DocumentType) String() string { return string(d) }

// Recognition pass method tags produced by the image preprocessing variants.
const (
	MethodDefault  = "default"
	MethodBinary   = "binary"
	MethodAdaptive = "adaptive"
	MethodBlur     = "blur"
)

// DefaultMethods is the ordered set of preprocessing variants recognized per image.
var DefaultMethods = []string{MethodDefault, MethodBinary, MethodAdaptive, MethodBlur}

// RecognitionPass is one run of text recognition over a preprocessed
// version of a document image.
type RecognitionPass struct {
	Method string `json:"method"`
	Text   string `json:"text"`
}

// AnswerMap holds alias to answer text pairs returned by query-style
// recognition backends.
type AnswerMap map[string]string

// FieldCandidate is a value proposed for a field by a single line match.
type FieldCandidate struct {
	Field  string
	Value  string
	Share  string
	Source string
	Line   int
}

// Sentinel values written into records.
const (
	NotAvailable = "Not Available"
	InvalidValue = "Invalid"
)
