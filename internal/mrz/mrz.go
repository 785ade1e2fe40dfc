// Package mrz locates and decodes machine-readable zones in recognized text.
package mrz

import (
	"regexp"
	"strings"

	"github.com/sells-group/docextract/internal/model"
)

var (
	mrzCharset = regexp.MustCompile(`^[A-Z0-9<]+$`)
	spaceRun   = regexp.MustCompile(`\s+`)
	cleaner    = strings.NewReplacer("«", "<<", "‹", "<", " ", "", "\t", "", "\r", "")
)

// lineWidth is the nominal character count of each layout's lines.
var lineWidth = map[model.MRZLayout]int{
	model.MRZTD1: 30,
	model.MRZTD3: 44,
}

// Detect returns the trailing MRZ-shaped lines of text for layout, or nil
// when fewer lines than the layout requires are present. Lines must use only
// the MRZ alphabet, contain at least one filler and reach 80% of the nominal
// width so short label lines are never mistaken for MRZ rows.
func Detect(text string, layout model.MRZLayout) []string {
	need := layout.Lines()
	if need == 0 {
		return nil
	}
	minLen := lineWidth[layout] * 4 / 5

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		l := cleaner.Replace(strings.ToUpper(raw))
		if len(l) < minLen || !strings.Contains(l, "<") || !mrzCharset.MatchString(l) {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) < need {
		return nil
	}
	return lines[len(lines)-need:]
}

// Decode parses MRZ lines in the given layout. It reports false when fewer
// lines than the layout requires were supplied. Short lines never panic:
// missing columns decode to empty fields or an Invalid date.
func Decode(lines []string, layout model.MRZLayout) (*model.MRZRecord, bool) {
	need := layout.Lines()
	if need == 0 || len(lines) < need {
		return nil, false
	}
	lines = lines[len(lines)-need:]

	switch layout {
	case model.MRZTD1:
		return decodeTD1(lines), true
	case model.MRZTD3:
		return decodeTD3(lines), true
	default:
		return nil, false
	}
}

// Extract detects and decodes an MRZ from text in one step.
func Extract(text string, layout model.MRZLayout) (*model.MRZRecord, bool) {
	lines := Detect(text, layout)
	if lines == nil {
		return nil, false
	}
	return Decode(lines, layout)
}

func decodeTD1(lines []string) *model.MRZRecord {
	l1, l2, l3 := lines[0], lines[1], lines[2]
	return &model.MRZRecord{
		Layout:      model.MRZTD1,
		Lines:       append([]string(nil), lines...),
		Identifier:  strings.ReplaceAll(slice(l1, 5, 30), "<", ""),
		DateOfBirth: NormalizeDate(fixed(l2, 0, 6)),
		Sex:         sexCode(fixed(l2, 7, 8)),
		ExpiryDate:  NormalizeDate(fixed(l2, 8, 14)),
		Nationality: strings.Trim(fixed(l2, 15, 18), "<"),
		FullName:    fillerToSpace(l3),
	}
}

func decodeTD3(lines []string) *model.MRZRecord {
	l1, l2 := lines[0], lines[1]
	return &model.MRZRecord{
		Layout:      model.MRZTD3,
		Lines:       append([]string(nil), lines...),
		Identifier:  strings.ReplaceAll(slice(l2, 0, 9), "<", ""),
		Nationality: strings.Trim(fixed(l2, 10, 13), "<"),
		DateOfBirth: NormalizeDate(fixed(l2, 13, 19)),
		Sex:         sexCode(fixed(l2, 20, 21)),
		ExpiryDate:  NormalizeDate(fixed(l2, 21, 27)),
		FullName:    passportName(slice(l1, 5, len(l1))),
	}
}

// passportName splits the TD3 name field on the double filler into surname
// and given names and re-joins them with a single space.
func passportName(field string) string {
	surname, given, _ := strings.Cut(field, "<<")
	parts := make([]string, 0, 2)
	for _, p := range []string{fillerToSpace(surname), fillerToSpace(given)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func fillerToSpace(s string) string {
	s = strings.ReplaceAll(s, "<", " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func sexCode(s string) string {
	switch s {
	case "M", "F":
		return s
	default:
		return ""
	}
}

// slice returns s[i:j] clamped to the string length.
func slice(s string, i, j int) string {
	if i >= len(s) {
		return ""
	}
	if j > len(s) {
		j = len(s)
	}
	return s[i:j]
}

// fixed returns s[i:j] only when the full column range exists.
func fixed(s string, i, j int) string {
	if j > len(s) {
		return ""
	}
	return s[i:j]
}
