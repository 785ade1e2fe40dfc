// Package reconcile picks one value per field from candidates gathered
// across recognition passes.
package reconcile

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/normalize"
)

var identifierPattern = regexp.MustCompile(`\d{1,4}-\d{1,4}-\d{1,7}-\d+`)

// Options tunes reconciliation.
type Options struct {
	// IdentifierPass names the pass identifier fields are read from.
	IdentifierPass string
	// Vocabulary holds the closed value list of vocabulary fields by key.
	Vocabulary map[string][]string
	// Default fills schema keys no candidate supplied.
	Default string
}

// DefaultNationalities is the built-in nationality vocabulary.
var DefaultNationalities = []string{"Iraq", "United Arab Emirates", "India", "USA", "Canada", "Germany"}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		IdentifierPass: model.MethodBlur,
		Vocabulary:     map[string][]string{"nationality": DefaultNationalities},
	}
}

// Vote returns the most frequent value. Ties go to the value seen first.
func Vote(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// VoteVocabulary votes among the values found in vocab, returning the
// vocabulary's spelling. When none match it falls back to a plain vote and
// reports verified=false. An empty vocabulary disables the check.
func VoteVocabulary(values, vocab []string) (winner string, verified bool) {
	if len(values) == 0 {
		return "", true
	}
	if len(vocab) == 0 {
		return Vote(values), true
	}

	canonical := make(map[string]string, len(vocab))
	for _, v := range vocab {
		canonical[strings.ToLower(v)] = v
	}
	var matched []string
	for _, v := range values {
		if c, ok := canonical[strings.ToLower(strings.TrimSpace(v))]; ok {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return Vote(values), false
	}
	return Vote(matched), true
}

// IdentifierFromText returns the first identifier shaped like
// 784-1990-1234567-1. Only lines with exactly three hyphens are considered.
func IdentifierFromText(text string) string {
	for _, line := range normalize.Lines(text, normalize.Options{}) {
		if strings.Count(line, "-") != 3 {
			continue
		}
		if m := identifierPattern.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// IdentifierFromPasses reads the identifier from the designated pass only.
func IdentifierFromPasses(passes []model.RecognitionPass, method string) string {
	for _, p := range passes {
		if p.Method == method {
			return IdentifierFromText(p.Text)
		}
	}
	return ""
}

// Owners votes on the owner list each pass produced and de-duplicates the
// winner, keeping first-seen order.
func Owners(cands []model.FieldCandidate) []model.OwnerShare {
	var order []string
	lists := make(map[string][]model.OwnerShare)
	for _, c := range cands {
		if c.Field != model.OwnersKey {
			continue
		}
		if _, ok := lists[c.Source]; !ok {
			order = append(order, c.Source)
		}
		lists[c.Source] = append(lists[c.Source], model.OwnerShare{Name: c.Value, Share: c.Share})
	}
	if len(order) == 0 {
		return []model.OwnerShare{}
	}

	signatures := make([]string, 0, len(order))
	bySignature := make(map[string][]model.OwnerShare, len(order))
	for _, src := range order {
		sig := signature(model.DedupeOwners(lists[src]))
		signatures = append(signatures, sig)
		if _, ok := bySignature[sig]; !ok {
			bySignature[sig] = lists[src]
		}
	}
	return model.DedupeOwners(bySignature[Vote(signatures)])
}

func signature(owners []model.OwnerShare) string {
	var b strings.Builder
	for _, o := range owners {
		b.WriteString(o.Name)
		b.WriteByte('\x1f')
		b.WriteString(o.Share)
		b.WriteByte('\x1e')
	}
	return b.String()
}

// Reconcile builds a record holding every schema key. Candidate values are
// voted per field; identifier fields come from the designated pass.
func Reconcile(s model.Schema, cands []model.FieldCandidate, passes []model.RecognitionPass, opts Options) *model.DocumentRecord {
	rec := model.NewRecord(s, opts.Default)

	values := make(map[string][]string)
	for _, c := range cands {
		if c.Field == model.OwnersKey {
			continue
		}
		values[c.Field] = append(values[c.Field], c.Value)
	}

	for _, f := range s.Fields {
		if f.Identifier {
			if id := IdentifierFromPasses(passes, opts.IdentifierPass); id != "" {
				rec.Set(f.Key, id, f.Group)
			}
			continue
		}

		vals := values[f.Key]
		if len(vals) == 0 {
			continue
		}

		var winner string
		if f.Vocabulary {
			var verified bool
			winner, verified = VoteVocabulary(vals, opts.Vocabulary[f.Key])
			if !verified {
				rec.Unverified = append(rec.Unverified, f.Key)
			}
		} else {
			winner = Vote(vals)
		}
		rec.Set(f.Key, winner, f.Group)

		zap.L().Debug("reconcile: voted",
			zap.String("field", f.Key),
			zap.String("winner", winner),
			zap.Int("candidates", len(vals)),
		)
	}

	if s.HasOwners {
		rec.Owners = Owners(cands)
	}
	return rec
}
