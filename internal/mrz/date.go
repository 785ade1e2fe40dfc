package mrz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/docextract/internal/model"
)

// CenturyPivot resolves two-digit years: values above it are 19xx, the rest 20xx.
const CenturyPivot = 50

// monthPrefixes maps month abbreviations (English and French) to month numbers.
// Longer prefixes are tried first so JUIN and JUIL resolve correctly.
var monthPrefixes = []struct {
	prefix string
	month  int
}{
	{"JANV", 1}, {"FEVR", 2}, {"JUIN", 6}, {"JUIL", 7}, {"SEPT", 9}, {"AOUT", 8},
	{"JAN", 1}, {"FEB", 2}, {"FEV", 2}, {"MAR", 3}, {"APR", 4}, {"AVR", 4},
	{"MAY", 5}, {"MAI", 5}, {"JUN", 6}, {"JUL", 7}, {"AUG", 8}, {"AOU", 8},
	{"SEP", 9}, {"OCT", 10}, {"NOV", 11}, {"DEC", 12},
}

var accentFolder = strings.NewReplacer("É", "E", "È", "E", "Û", "U", "Ô", "O")

var (
	numericDate = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	textualDate = regexp.MustCompile(`^(\d{1,2})[\s./\-]*([A-Z]{3,})(?:[\s/]+[A-Z]{3,})?[\s./\-]*(\d{4}|\d{2})$`)
)

// NormalizeDate converts a date token into DD/MM/YYYY. It accepts MRZ
// YYMMDD tokens, textual "DD MON YYYY" forms and numeric DD/MM/YYYY or
// DD-MM-YYYY dates. Anything else, including impossible calendar dates,
// yields model.InvalidValue.
func NormalizeDate(token string) string {
	tok := accentFolder.Replace(strings.ToUpper(strings.TrimSpace(token)))
	if tok == "" {
		return model.InvalidValue
	}

	if len(tok) == 6 && allDigits(tok) {
		yy, _ := strconv.Atoi(tok[0:2])
		mm, _ := strconv.Atoi(tok[2:4])
		dd, _ := strconv.Atoi(tok[4:6])
		return format(dd, mm, expandYear(yy))
	}

	if m := numericDate.FindStringSubmatch(tok); m != nil {
		dd, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		yyyy, _ := strconv.Atoi(m[3])
		return format(dd, mm, yyyy)
	}

	if m := textualDate.FindStringSubmatch(tok); m != nil {
		month := lookupMonth(m[2])
		if month == 0 {
			return model.InvalidValue
		}
		dd, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year = expandYear(year)
		}
		return format(dd, month, year)
	}

	return model.InvalidValue
}

func expandYear(yy int) int {
	if yy > CenturyPivot {
		return 1900 + yy
	}
	return 2000 + yy
}

func lookupMonth(word string) int {
	for _, mp := range monthPrefixes {
		if strings.HasPrefix(word, mp.prefix) {
			return mp.month
		}
	}
	return 0
}

// format renders a calendar date, rejecting values time.Date would roll over.
func format(day, month, year int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return model.InvalidValue
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return model.InvalidValue
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
