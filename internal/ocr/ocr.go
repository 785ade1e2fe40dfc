// Package ocr turns document images and PDFs into recognition passes.
package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docextract/internal/config"
	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/resilience"
)

// Source is one file to recognize. Method tags the resulting pass.
type Source struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// Recognizer produces one recognition pass per source.
type Recognizer interface {
	Recognize(ctx context.Context, src Source) (model.RecognitionPass, error)
}

// New creates the configured recognizer, wrapped with retry and a breaker.
func New(cfg config.OCRConfig, retry config.RetryConfig) (Recognizer, error) {
	var (
		r    Recognizer
		name = cfg.Provider
	)
	switch cfg.Provider {
	case "tesseract", "":
		name = "tesseract"
		r = NewTesseract(cfg.TesseractPath, cfg.TesseractLang)
	case "local":
		r = NewPdfToText(cfg.PdfToTextPath)
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		r = NewMistralOCR(cfg.MistralKey, cfg.MistralModel,
			WithBaseURL(cfg.MistralBaseURL),
			WithRateLimit(cfg.RequestsPerSecond),
			WithTimeout(time.Duration(cfg.TimeoutSecs)*time.Second),
		)
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
	return &Resilient{
		Next:    r,
		Name:    name,
		Policy:  resilience.FromConfig(retry),
		Breaker: resilience.BreakerFromConfig(name, retry),
	}, nil
}

// Resilient retries transient failures of Next and stops calling it while
// its breaker is open.
type Resilient struct {
	Next    Recognizer
	Name    string
	Policy  resilience.Policy
	Breaker *resilience.Breaker
}

// Recognize implements Recognizer.
func (r *Resilient) Recognize(ctx context.Context, src Source) (model.RecognitionPass, error) {
	p := r.Policy
	if p.OnRetry == nil {
		p.OnRetry = resilience.LogRetries(r.Name, src.Path)
	}
	return resilience.DoVal(ctx, p, func(ctx context.Context) (model.RecognitionPass, error) {
		return resilience.Call(ctx, r.Breaker, func(ctx context.Context) (model.RecognitionPass, error) {
			return r.Next.Recognize(ctx, src)
		})
	})
}

// RecognizeAll recognizes every source concurrently and returns the passes
// in source order. The first failure cancels the rest.
func RecognizeAll(ctx context.Context, r Recognizer, srcs []Source) ([]model.RecognitionPass, error) {
	passes := make([]model.RecognitionPass, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			start := time.Now()
			p, err := r.Recognize(gctx, src)
			if err != nil {
				return eris.Wrapf(err, "ocr: recognize %s (%s)", src.Path, src.Method)
			}
			passes[i] = p
			zap.L().Debug("ocr: pass recognized",
				zap.String("path", src.Path),
				zap.String("method", src.Method),
				zap.Int("chars", len(p.Text)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return passes, nil
}

// VariantSources lists the pre-rendered variants of path. A variant of
// scan.png for method blur is scan.blur.png. When no variant exists the
// file itself is returned once, tagged with fallback.
func VariantSources(path, fallback string) []Source {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	var out []Source
	for _, m := range model.DefaultMethods {
		p := base + "." + m + ext
		if _, err := os.Stat(p); err == nil {
			out = append(out, Source{Path: p, Method: m})
		}
	}
	if len(out) == 0 {
		out = append(out, Source{Path: path, Method: fallback})
	}
	return out
}
