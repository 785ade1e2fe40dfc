// Package engine turns recognition passes or answer maps for one document
// into a single reconciled, cross-validated record.
package engine

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/answers"
	"github.com/sells-group/docextract/internal/extract"
	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/mrz"
	"github.com/sells-group/docextract/internal/normalize"
	"github.com/sells-group/docextract/internal/reconcile"
	"github.com/sells-group/docextract/internal/validate"
)

// Options configures an Engine.
type Options struct {
	Reconcile reconcile.Options
	Tables    answers.Tables
	// NotAvailable fills schema keys the answer path found no value for.
	NotAvailable string
}

// DefaultOptions returns the built-in engine configuration.
func DefaultOptions() Options {
	return Options{
		Reconcile:    reconcile.DefaultOptions(),
		Tables:       answers.DefaultTables(),
		NotAvailable: model.NotAvailable,
	}
}

// Request is one document to extract. Answers selects the query-answer
// path; otherwise the passes are scanned line by line. Passes are still
// searched for an MRZ on the answer path.
type Request struct {
	DocType model.DocumentType
	Passes  []model.RecognitionPass
	Answers model.AnswerMap
}

// Engine is stateless apart from its configuration and safe for concurrent use.
type Engine struct {
	opts Options
}

// New creates an Engine, filling unset options from the defaults.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Reconcile.IdentifierPass == "" {
		opts.Reconcile.IdentifierPass = def.Reconcile.IdentifierPass
	}
	if opts.Reconcile.Vocabulary == nil {
		opts.Reconcile.Vocabulary = def.Reconcile.Vocabulary
	}
	if opts.Tables == nil {
		opts.Tables = def.Tables
	}
	if opts.NotAvailable == "" {
		opts.NotAvailable = def.NotAvailable
	}
	return &Engine{opts: opts}
}

// Extract builds the record for req. The only error is an unsupported
// document type; missing fields, malformed dates and absent MRZs are
// reported inside the record.
func (e *Engine) Extract(req Request) (*model.DocumentRecord, error) {
	s, ok := model.SchemaFor(req.DocType)
	if !ok {
		return nil, eris.Wrapf(model.ErrUnsupportedDocumentType, "engine: extract %q", req.DocType)
	}

	if s.Type == model.DocRaw {
		return e.raw(s, req.Passes), nil
	}

	var (
		rec     *model.DocumentRecord
		mrzText []string
		err     error
	)
	if req.Answers != nil {
		rec = e.fromAnswers(s, req.Answers)
		if t := answers.MRZText(e.opts.Tables[s.Type], req.Answers); t != "" {
			mrzText = append(mrzText, t)
		}
	} else {
		rec, err = e.fromLines(s, req.Passes)
		if err != nil {
			return nil, err
		}
	}

	if s.MRZ != model.MRZNone {
		for _, p := range req.Passes {
			mrzText = append(mrzText, p.Text)
		}
		m := SelectMRZ(mrzText, s.MRZ)
		rec.MRZ = m
		backfill(rec, m, e.missing(req))
		validate.CrossValidate(rec, m, e.missing(req))
	}

	zap.L().Debug("engine: extracted",
		zap.String("doc_type", string(s.Type)),
		zap.Int("passes", len(req.Passes)),
		zap.Bool("answers", req.Answers != nil),
		zap.Bool("mrz", rec.MRZ != nil),
	)
	return rec, nil
}

func (e *Engine) missing(req Request) string {
	if req.Answers != nil {
		return e.opts.NotAvailable
	}
	return e.opts.Reconcile.Default
}

func (e *Engine) fromLines(s model.Schema, passes []model.RecognitionPass) (*model.DocumentRecord, error) {
	var cands []model.FieldCandidate
	for _, p := range passes {
		c, err := extract.Candidates(s.Type, p)
		if err != nil {
			return nil, err
		}
		cands = append(cands, c...)
	}
	return reconcile.Reconcile(s, cands, passes, e.opts.Reconcile), nil
}

func (e *Engine) fromAnswers(s model.Schema, am model.AnswerMap) *model.DocumentRecord {
	rec := answers.Map(s, e.opts.Tables[s.Type], am, e.opts.NotAvailable)
	for _, f := range s.Fields {
		if !f.Vocabulary {
			continue
		}
		v, _ := rec.Get(f.Key)
		if v == e.opts.NotAvailable {
			continue
		}
		winner, verified := reconcile.VoteVocabulary([]string{v}, e.opts.Reconcile.Vocabulary[f.Key])
		rec.Set(f.Key, winner, f.Group)
		if !verified {
			rec.Unverified = append(rec.Unverified, f.Key)
		}
	}
	return rec
}

// raw joins the normalized passes, separated by a blank line.
func (e *Engine) raw(s model.Schema, passes []model.RecognitionPass) *model.DocumentRecord {
	rec := model.NewRecord(s, e.opts.Reconcile.Default)
	texts := make([]string, 0, len(passes))
	for _, p := range passes {
		if t := normalize.Text(p.Text, normalize.ForSchema(s)); t != "" {
			texts = append(texts, t)
		}
	}
	rec.RawText = strings.Join(texts, "\n\n")
	return rec
}

// SelectMRZ decodes the MRZ of each text in turn and returns the first one
// whose dates both parse, falling back to the first decodable one. It
// returns nil when no text carries enough MRZ lines.
func SelectMRZ(texts []string, layout model.MRZLayout) *model.MRZRecord {
	var first *model.MRZRecord
	for _, t := range texts {
		m, ok := mrz.Extract(t, layout)
		if !ok {
			continue
		}
		if m.DateOfBirth != model.InvalidValue && m.ExpiryDate != model.InvalidValue {
			return m
		}
		if first == nil {
			first = m
		}
	}
	return first
}

// backfill copies MRZ values into identity fields the visual text left
// empty. The id_card identifier is never taken from the MRZ: it comes only
// from the designated recognition pass.
func backfill(rec *model.DocumentRecord, m *model.MRZRecord, missing string) {
	if m == nil {
		return
	}
	fill := func(key, value string) {
		cur, ok := rec.Get(key)
		if !ok || value == "" || (cur != "" && cur != missing) {
			return
		}
		rec.Set(key, value, rec.GroupOf(key))
	}
	fill("name", m.FullName)
	fill("sex", m.Sex)
	if m.Layout == model.MRZTD3 {
		fill("passport_number", m.Identifier)
	}
}
