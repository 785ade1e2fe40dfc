// Package normalize cleans raw recognized text before line scanning.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/docextract/internal/model"
)

// Options controls which characters survive normalization.
type Options struct {
	// AllowPunct keeps commas and periods, which deed-style documents use
	// in areas and owner shares.
	AllowPunct bool
	// StripTrailingColons removes colons left dangling at the end of a label line.
	StripTrailingColons bool
}

// ForSchema returns the options appropriate to a document schema.
func ForSchema(s model.Schema) Options {
	return Options{AllowPunct: s.Deed, StripTrailingColons: s.Deed}
}

var multiSpace = regexp.MustCompile(` {2,}`)

// Text normalizes raw recognized text. The number of newlines in the output
// always equals the number in the input, and Text(Text(s)) == Text(s).
func Text(raw string, opts Options) string {
	if raw == "" {
		return ""
	}

	t := transform.Chain(
		norm.NFKC,
		runes.Map(foldRune),
		runes.Remove(runes.Predicate(func(r rune) bool { return !allowed(r, opts.AllowPunct) })),
		// removal can leave composable runes adjacent
		norm.NFKC,
	)
	cleaned, _, err := transform.String(t, raw)
	if err != nil {
		// transform only fails on malformed chains; fall back to the raw text
		// filtered rune by rune.
		cleaned = strings.Map(func(r rune) rune {
			r = foldRune(r)
			if !allowed(r, opts.AllowPunct) {
				return -1
			}
			return r
		}, raw)
	}

	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		line = multiSpace.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if opts.StripTrailingColons {
			line = strings.TrimRight(line, ": ")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Lines normalizes raw text and splits it into lines.
func Lines(raw string, opts Options) []string {
	return strings.Split(Text(raw, opts), "\n")
}

// foldRune maps tabs to spaces, drops carriage returns via the allow-list and
// folds Arabic-Indic digits onto ASCII so numeric patterns match either script.
func foldRune(r rune) rune {
	switch {
	case r == '\t':
		return ' '
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	}
	return r
}

func allowed(r rune, punct bool) bool {
	switch r {
	case '/', '-', ':', ' ', '\n':
		return true
	case ',', '.':
		return punct
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
