// Package extract scans normalized document lines for keyword anchors and
// proposes candidate field values.
package extract

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/normalize"
)

var (
	sexToken    = regexp.MustCompile(`\b(m|male|f|female)\b`)
	numberToken = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	ownerLine   = regexp.MustCompile(`^(.*?)[\s:,\-]*(\d+(?:\.\d+)?)$`)
	enumeration = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
)

// Candidates normalizes a recognition pass and scans it with the anchor
// table of dt. The raw document type yields no candidates.
func Candidates(dt model.DocumentType, pass model.RecognitionPass) ([]model.FieldCandidate, error) {
	t, ok := TableFor(dt)
	if !ok {
		return nil, eris.Wrapf(model.ErrUnsupportedDocumentType, "extract: %q", dt)
	}
	s, _ := model.SchemaFor(dt)

	lines := normalize.Lines(pass.Text, normalize.ForSchema(s))
	out := Scan(t, lines, pass.Method)

	zap.L().Debug("extract: scanned pass",
		zap.String("doc_type", string(dt)),
		zap.String("pass", pass.Method),
		zap.Int("lines", len(lines)),
		zap.Int("candidates", len(out)),
	)
	return out, nil
}

// Scan walks lines top to bottom. Each non-multi field takes the first
// anchor line that yields a value; multi fields yield one candidate per
// matching line. The first owners block in the pass is parsed into
// name/share candidates.
func Scan(t Table, lines []string, source string) []model.FieldCandidate {
	s, _ := model.SchemaFor(t.Type)
	var out []model.FieldCandidate
	done := make(map[string]bool)
	ownersDone := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if t.Owners != nil && !ownersDone {
			if kw, ok := matchKeyword(lower, t.Owners.Keywords); ok {
				owners, consumed := scanOwners(t, lines, i, kw, source)
				out = append(out, owners...)
				ownersDone = true
				i += consumed
				continue
			}
		}

		for _, a := range t.Anchors {
			kw, ok := matchKeyword(lower, a.Keywords)
			if !ok {
				continue
			}
			if !done[a.Field] || a.Multi {
				if v, at, ok := a.extract(t, lines, i, kw); ok {
					v = finish(s, a, v)
					if v != "" {
						out = append(out, model.FieldCandidate{Field: a.Field, Value: v, Source: source, Line: at})
						if !a.Multi {
							done[a.Field] = true
						}
					}
				}
			}
			if a.Exclusive {
				break
			}
		}
	}
	return out
}

// extract pulls the anchor's raw value from line i or its lookahead window,
// returning the index of the line that held it.
func (a Anchor) extract(t Table, lines []string, i int, kw string) (string, int, bool) {
	line := lines[i]
	before, after := cut(line, kw)

	switch a.Rule {
	case RuleFixed:
		return a.Fixed, i, true

	case RuleSex:
		if v := sexValue(line); v != "" {
			return v, i, true
		}
		return "", i, false

	case RulePattern:
		if m := a.Pattern.FindString(after); m != "" {
			return m, i, true
		}
		if m := a.Pattern.FindString(before); m != "" {
			return m, i, true
		}
		for j := 1; j <= a.Lookahead && i+j < len(lines); j++ {
			next := lines[i+j]
			if next == "" || isAnchorLine(t, next, a.Field) {
				continue
			}
			if m := a.Pattern.FindString(next); m != "" {
				return m, i + j, true
			}
		}
		return "", i, false

	default:
		if v := a.clean(a.textValue(line, after)); v != "" {
			return v, i, true
		}
		for j := 1; j <= a.Lookahead && i+j < len(lines); j++ {
			next := lines[i+j]
			if next == "" {
				continue
			}
			if isAnchorLine(t, next, "") {
				break
			}
			if v := a.clean(next); v != "" {
				return v, i + j, true
			}
		}
		return "", i, false
	}
}

// textValue prefers an explicit label strip, then the colon suffix, then
// whatever follows the keyword.
func (a Anchor) textValue(line, after string) string {
	if a.Strip != nil {
		return a.Strip.ReplaceAllString(line, "")
	}
	if _, v, ok := strings.Cut(line, ":"); ok {
		return v
	}
	return after
}

// clean drops the anchor's non-Latin labels (bilingual lines carry both),
// its removal words and stray separators from a value.
func (a Anchor) clean(v string) string {
	for _, kw := range a.Keywords {
		if !isASCII(kw) {
			v = removeFold(v, kw)
		}
	}
	for _, w := range a.Remove {
		v = removeFold(v, w)
	}
	v = strings.ReplaceAll(v, ":", "")
	return strings.Trim(strings.Join(strings.Fields(v), " "), " -,")
}

// finish applies schema-level value constraints.
func finish(s model.Schema, a Anchor, v string) string {
	v = strings.TrimSpace(v)
	if f, ok := s.Field(a.Field); ok && f.Numeric {
		v = FirstNumber(v)
	}
	if a.TitleCase && v != "" {
		v = cases.Title(language.Und).String(v)
	}
	return v
}

// FirstNumber returns the first decimal number in v with thousands
// separators removed, or "" when v holds no digits.
func FirstNumber(v string) string {
	m := numberToken.FindString(v)
	return strings.ReplaceAll(m, ",", "")
}

func sexValue(line string) string {
	lower := strings.ToLower(line)
	if m := sexToken.FindString(lower); m != "" {
		if m == "m" || m == "male" {
			return "M"
		}
		return "F"
	}
	switch {
	case strings.Contains(line, "ذكر"):
		return "M"
	case strings.Contains(line, "أنثى"), strings.Contains(line, "انثى"):
		return "F"
	}
	return ""
}

// scanOwners parses the owner block that starts at line i. It returns the
// candidates and how many lines after i were consumed.
func scanOwners(t Table, lines []string, i int, kw, source string) ([]model.FieldCandidate, int) {
	var out []model.FieldCandidate
	pending := ""
	pendingLine := 0

	take := func(text string, at int) {
		for _, w := range append(t.Owners.Keywords, t.Owners.Remove...) {
			text = removeFold(text, w)
		}
		name, share := parseOwner(text)
		switch {
		case name != "" && share != "":
			out = append(out, model.FieldCandidate{Field: model.OwnersKey, Value: name, Share: share, Source: source, Line: at})
			pending = ""
		case name != "":
			pending, pendingLine = name, at
		case share != "" && pending != "":
			out = append(out, model.FieldCandidate{Field: model.OwnersKey, Value: pending, Share: share, Source: source, Line: pendingLine})
			pending = ""
		}
	}

	if _, v, ok := strings.Cut(lines[i], ":"); ok {
		take(v, i)
	} else if _, after := cut(lines[i], kw); after != "" {
		take(after, i)
	}

	consumed := 0
	for j := i + 1; j < len(lines) && j <= i+t.Owners.MaxLines; j++ {
		l := lines[j]
		if l == "" {
			if len(out) > 0 || pending != "" {
				break
			}
			consumed = j - i
			continue
		}
		if isAnchorLine(t, l, "") {
			break
		}
		take(l, j)
		consumed = j - i
	}
	return out, consumed
}

// parseOwner splits "Name Surname 50.00" into its name and share.
func parseOwner(text string) (name, share string) {
	text = strings.TrimSpace(enumeration.ReplaceAllString(strings.TrimSpace(text), ""))
	text = strings.Trim(strings.ReplaceAll(text, ":", " "), " ,-")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", ""
	}
	if m := ownerLine.FindStringSubmatch(text); m != nil {
		return strings.Trim(m[1], " ,-"), m[2]
	}
	if !hasLetter(text) {
		return "", ""
	}
	return text, ""
}

// isAnchorLine reports whether line matches any anchor other than except,
// or the owners block keywords.
func isAnchorLine(t Table, line, except string) bool {
	lower := strings.ToLower(line)
	for _, a := range t.Anchors {
		if a.Field == except {
			continue
		}
		if _, ok := matchKeyword(lower, a.Keywords); ok {
			return true
		}
	}
	if t.Owners != nil {
		if _, ok := matchKeyword(lower, t.Owners.Keywords); ok {
			return true
		}
	}
	return false
}

func matchKeyword(lower string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// cut splits line around the first case-insensitive occurrence of kw,
// keeping the original casing of both halves.
func cut(line, kw string) (before, after string) {
	loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw)).FindStringIndex(line)
	if loc == nil {
		return line, ""
	}
	return line[:loc[0]], line[loc[1]:]
}

func removeFold(v, word string) string {
	if word == "" {
		return v
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))
	return re.ReplaceAllString(v, "")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7f {
			return true
		}
	}
	return false
}
