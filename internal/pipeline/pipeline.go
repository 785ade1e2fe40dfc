// Package pipeline runs one document from source to stored record:
// fetch, recognize, answer, extract, persist.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/engine"
	"github.com/sells-group/docextract/internal/fetcher"
	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/ocr"
	"github.com/sells-group/docextract/internal/resilience"
	"github.com/sells-group/docextract/internal/store"
)

// Phase names recorded on each run.
const (
	PhaseFetch     = "fetch"
	PhaseRecognize = "recognize"
	PhaseAnswer    = "answer"
	PhaseExtract   = "extract"
)

// Job is one document to process. Passes or Answers supplied by the caller
// skip the phases that would otherwise produce them.
type Job struct {
	DocType model.DocumentType
	Source  string
	Mode    model.ExtractionMode
	Passes  []model.RecognitionPass
	Answers model.AnswerMap
}

func (j Job) mode() model.ExtractionMode {
	if j.Mode != "" {
		return j.Mode
	}
	if j.Answers != nil {
		return model.ModeAnswers
	}
	return model.ModeLines
}

// Result is the outcome of a successful job.
type Result struct {
	RunID  string                `json:"run_id,omitempty"`
	Record *model.DocumentRecord `json:"record"`
	Run    *model.RunResult      `json:"run"`
}

// Deps are the collaborators a Pipeline calls. Store, Recognizer, Answerer
// and Resolver may be nil when no job needs them.
type Deps struct {
	Engine     *engine.Engine
	Store      store.Store
	Recognizer ocr.Recognizer
	Answerer   ocr.Answerer
	Resolver   *fetcher.Resolver
	// IdentifierPass tags a source that has no pre-rendered variants.
	IdentifierPass string
	// WorkDir receives downloaded sources. Defaults to the OS temp dir.
	WorkDir string
}

// Pipeline orchestrates the phases of one extraction.
type Pipeline struct {
	deps Deps
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	if deps.Engine == nil {
		deps.Engine = engine.New(engine.DefaultOptions())
	}
	if deps.IdentifierPass == "" {
		deps.IdentifierPass = model.MethodBlur
	}
	if deps.WorkDir == "" {
		deps.WorkDir = os.TempDir()
	}
	return &Pipeline{deps: deps}
}

// Run executes job. Unsupported document types fail before a run is created.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Result, error) {
	if _, ok := model.SchemaFor(job.DocType); !ok {
		return nil, eris.Wrapf(model.ErrUnsupportedDocumentType, "pipeline: run %q", job.DocType)
	}

	log := zap.L().With(zap.String("doc_type", string(job.DocType)), zap.String("source", job.Source))
	log.Info("pipeline: starting extraction")

	rr := &model.RunResult{}
	res := &Result{Run: rr}

	if p.deps.Store != nil {
		run, err := p.deps.Store.CreateRun(ctx, job.DocType, job.Source, job.mode())
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		res.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}

	setStatus := func(status model.RunStatus) {
		if p.deps.Store == nil {
			return
		}
		if err := p.deps.Store.UpdateRunStatus(ctx, res.RunID, status); err != nil {
			log.Warn("pipeline: failed to update status", zap.Error(err))
		}
	}

	trackPhase := func(name string, fn func() (map[string]any, error)) error {
		start := time.Now()
		meta, err := fn()
		pr := model.PhaseResult{
			Name:     name,
			Status:   model.PhaseStatusComplete,
			Duration: time.Since(start).Milliseconds(),
			Metadata: meta,
		}
		if err != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration), zap.Error(err))
		} else {
			log.Debug("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration))
		}
		rr.Phases = append(rr.Phases, pr)
		return err
	}

	skip := func(name string) {
		rr.Phases = append(rr.Phases, model.PhaseResult{Name: name, Status: model.PhaseStatusSkipped})
	}

	fail := func(err error) (*Result, error) {
		rr.Error = err.Error()
		rr.ErrorClass = resilience.Classify(err)
		p.finish(ctx, res.RunID, model.RunStatusFailed, rr, log)
		return nil, err
	}

	passes := job.Passes
	answers := job.Answers
	needPasses := len(passes) == 0 && job.Source != ""
	needAnswers := job.mode() == model.ModeAnswers && answers == nil

	// Phase 1: fetch
	local := job.Source
	if needPasses && fetcher.IsRemote(job.Source) {
		err := trackPhase(PhaseFetch, func() (map[string]any, error) {
			if p.deps.Resolver == nil {
				return nil, eris.New("pipeline: no resolver for remote source")
			}
			path, err := p.deps.Resolver.Resolve(ctx, job.Source, p.deps.WorkDir)
			if err != nil {
				return nil, err
			}
			local = path
			return map[string]any{"path": path}, nil
		})
		if err != nil {
			return fail(err)
		}
	} else if needPasses && fetcher.LocalPath(job.Source) != job.Source {
		_ = trackPhase(PhaseFetch, func() (map[string]any, error) {
			local = fetcher.LocalPath(job.Source)
			return map[string]any{"path": local}, nil
		})
	} else {
		skip(PhaseFetch)
	}

	// Phase 2: recognize
	if needPasses {
		setStatus(model.RunStatusRecognizing)
		err := trackPhase(PhaseRecognize, func() (map[string]any, error) {
			if p.deps.Recognizer == nil {
				return nil, eris.New("pipeline: no recognizer configured")
			}
			srcs := ocr.VariantSources(local, p.deps.IdentifierPass)
			got, err := ocr.RecognizeAll(ctx, p.deps.Recognizer, srcs)
			if err != nil {
				return nil, err
			}
			passes = got
			return map[string]any{"passes": len(got)}, nil
		})
		if err != nil {
			return fail(err)
		}
	} else {
		skip(PhaseRecognize)
	}
	rr.Passes = len(passes)

	// Phase 3: answer
	if needAnswers && job.DocType != model.DocRaw {
		err := trackPhase(PhaseAnswer, func() (map[string]any, error) {
			if p.deps.Answerer == nil {
				return nil, eris.New("pipeline: no answerer configured")
			}
			am, err := p.deps.Answerer.Answer(ctx, job.DocType, joinPasses(passes))
			if err != nil {
				return nil, err
			}
			answers = am
			return map[string]any{"answers": len(am)}, nil
		})
		if err != nil {
			return fail(err)
		}
	} else {
		skip(PhaseAnswer)
	}

	// Phase 4: extract
	setStatus(model.RunStatusExtracting)
	err := trackPhase(PhaseExtract, func() (map[string]any, error) {
		rec, err := p.deps.Engine.Extract(engine.Request{
			DocType: job.DocType,
			Passes:  passes,
			Answers: answers,
		})
		if err != nil {
			return nil, err
		}
		res.Record = rec
		return map[string]any{"mrz": rec.MRZ != nil}, nil
	})
	if err != nil {
		return fail(err)
	}

	s, _ := model.SchemaFor(job.DocType)
	rr.FieldsFound, rr.FieldsTotal = model.CountFilled(res.Record, s)
	if res.Record.Validation != nil {
		rr.ValidationStatus = res.Record.Validation.Status
	}
	raw, err := json.Marshal(res.Record)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: encode record"))
	}
	rr.Record = raw

	p.finish(ctx, res.RunID, model.RunStatusComplete, rr, log)
	log.Info("pipeline: extraction complete",
		zap.Int("fields_found", rr.FieldsFound),
		zap.Int("fields_total", rr.FieldsTotal),
		zap.String("validation", rr.ValidationStatus),
	)
	return res, nil
}

func (p *Pipeline) finish(ctx context.Context, runID string, status model.RunStatus, rr *model.RunResult, log *zap.Logger) {
	if p.deps.Store == nil {
		return
	}
	if err := p.deps.Store.FinishRun(ctx, runID, status, rr); err != nil {
		log.Warn("pipeline: failed to finish run", zap.Error(err))
	}
}

// joinPasses concatenates pass texts for the answer backend.
func joinPasses(passes []model.RecognitionPass) string {
	parts := make([]string, 0, len(passes))
	for _, p := range passes {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
