// Package answers maps query-style recognition output (alias to answer
// pairs) onto document records.
package answers

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docextract/internal/model"
)

// DefaultMaxOwners bounds the indexed owner aliases that are read.
const DefaultMaxOwners = 10

// Table is the alias configuration of one document type.
type Table struct {
	// Fields lists the aliases of each field key in priority order.
	Fields map[string][]string `yaml:"fields"`
	// OwnerName and OwnerShare are printf formats taking a 1-based index.
	OwnerName  string `yaml:"owner_name"`
	OwnerShare string `yaml:"owner_share"`
	MaxOwners  int    `yaml:"max_owners"`
	// MRZ is the alias whose answer holds the machine-readable zone text.
	MRZ string `yaml:"mrz"`
}

// Tables holds alias tables keyed by document type.
type Tables map[model.DocumentType]Table

// DefaultTables returns the built-in alias tables. Every field answers to
// its own key plus the camel-case query names used by document-analysis
// backends.
func DefaultTables() Tables {
	out := make(Tables)
	for _, dt := range model.AllDocumentTypes() {
		s, _ := model.SchemaFor(dt)
		t := Table{Fields: make(map[string][]string, len(s.Fields))}
		for _, f := range s.Fields {
			t.Fields[f.Key] = []string{f.Key, camel(f.Key)}
		}
		if s.HasOwners {
			t.OwnerName = "owner_name_%d"
			t.OwnerShare = "owner_share_%d"
			t.MaxOwners = DefaultMaxOwners
		}
		if s.MRZ != model.MRZNone {
			t.MRZ = "mrz"
		}
		out[dt] = t
	}

	extra := map[model.DocumentType]map[string][]string{
		model.DocIDCard: {
			"name":          {"FullName"},
			"date_of_birth": {"DOB", "BirthDate"},
			"id_number":     {"IDNumber", "EmiratesID"},
			"expiry_date":   {"ExpiryDate"},
			"issuing_date":  {"IssueDate"},
		},
		model.DocPassport: {
			"name":            {"FullName"},
			"passport_number": {"PassportNo", "DocumentNumber"},
			"date_of_birth":   {"DOB"},
		},
		model.DocTitleDeed: {
			"area_sq_meter": {"AreaSqm"},
			"area_sq_feet":  {"AreaSqft"},
		},
		model.DocCommercialLicense: {
			"license_no": {"LicenseNumber"},
		},
	}
	for dt, fields := range extra {
		for key, aliases := range fields {
			out[dt].Fields[key] = append(out[dt].Fields[key], aliases...)
		}
	}
	return out
}

// LoadTables reads alias overrides from a YAML file and merges them over
// the defaults. Field alias lists in the file replace the default list for
// that field; other fields keep their defaults. A positive maxOwners
// replaces DefaultMaxOwners on owner tables before the file is applied, so
// a max_owners set in the file always wins.
func LoadTables(path string, maxOwners int) (Tables, error) {
	tables := DefaultTables()
	if maxOwners > 0 {
		for dt, t := range tables {
			if t.OwnerName != "" {
				t.MaxOwners = maxOwners
				tables[dt] = t
			}
		}
	}
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "answers: read %s", path)
	}

	var raw map[string]Table
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "answers: parse %s", path)
	}

	for name, override := range raw {
		dt, err := model.ParseDocumentType(name)
		if err != nil {
			return nil, eris.Wrapf(err, "answers: %s", path)
		}
		base := tables[dt]
		for key, aliases := range override.Fields {
			if _, ok := base.Fields[key]; !ok {
				return nil, eris.Errorf("answers: %s: unknown field %q for %s", path, key, dt)
			}
			base.Fields[key] = aliases
		}
		if override.OwnerName != "" {
			base.OwnerName = override.OwnerName
		}
		if override.OwnerShare != "" {
			base.OwnerShare = override.OwnerShare
		}
		if override.MaxOwners > 0 {
			base.MaxOwners = override.MaxOwners
		}
		if override.MRZ != "" {
			base.MRZ = override.MRZ
		}
		tables[dt] = base
	}
	return tables, nil
}

// lookup resolves aliases exactly first, then case-insensitively, ignoring
// blank answers. Among keys that fold together the all-lowercase key wins,
// then the first in sorted order.
type lookup struct {
	exact map[string]string
	fold  map[string]string
}

func newLookup(answers model.AnswerMap) lookup {
	l := lookup{exact: make(map[string]string, len(answers)), fold: make(map[string]string, len(answers))}
	for _, k := range slices.Sorted(maps.Keys(answers)) {
		v := strings.TrimSpace(answers[k])
		if v == "" {
			continue
		}
		l.exact[k] = v
		lk := strings.ToLower(k)
		if _, ok := l.fold[lk]; !ok || k == lk {
			l.fold[lk] = v
		}
	}
	return l
}

func (l lookup) get(alias string) (string, bool) {
	if v, ok := l.exact[alias]; ok {
		return v, true
	}
	v, ok := l.fold[strings.ToLower(alias)]
	return v, ok
}

// Map builds a record from an answer map. Fields whose aliases produced no
// answer default to missing. Owner pairs are read for indices 1..MaxOwners;
// pairs lacking either half are dropped and repeated pairs collapse,
// keeping first-seen order.
func Map(s model.Schema, t Table, answers model.AnswerMap, missing string) *model.DocumentRecord {
	rec := model.NewRecord(s, missing)
	l := newLookup(answers)

	for _, f := range s.Fields {
		for _, alias := range t.Fields[f.Key] {
			if v, ok := l.get(alias); ok {
				rec.Set(f.Key, v, f.Group)
				break
			}
		}
	}

	if s.HasOwners {
		rec.Owners = owners(t, l)
	}
	return rec
}

// owners collects the indexed owner pairs of an answer map.
func owners(t Table, l lookup) []model.OwnerShare {
	limit := t.MaxOwners
	if limit <= 0 {
		limit = DefaultMaxOwners
	}
	out := make([]model.OwnerShare, 0, limit)
	if t.OwnerName == "" || t.OwnerShare == "" {
		return out
	}
	for i := 1; i <= limit; i++ {
		name, okName := l.get(fmt.Sprintf(t.OwnerName, i))
		share, okShare := l.get(fmt.Sprintf(t.OwnerShare, i))
		if !okName || !okShare {
			continue
		}
		out = append(out, model.OwnerShare{Name: name, Share: share})
	}
	return model.DedupeOwners(out)
}

// MRZText returns the machine-readable zone answer, if the table names one.
func MRZText(t Table, answers model.AnswerMap) string {
	if t.MRZ == "" {
		return ""
	}
	v, _ := newLookup(answers).get(t.MRZ)
	return v
}

// camel turns date_of_birth into DateOfBirth.
func camel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
