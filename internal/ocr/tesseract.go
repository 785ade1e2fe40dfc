package ocr

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docextract/internal/model"
)

// Tesseract recognizes images with the tesseract CLI.
type Tesseract struct {
	binPath string
	lang    string
}

// NewTesseract creates a Tesseract recognizer. Empty arguments default to
// "tesseract" and "ara+eng".
func NewTesseract(binPath, lang string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	if lang == "" {
		lang = "ara+eng"
	}
	return &Tesseract{binPath: binPath, lang: lang}
}

// Recognize runs tesseract on src and returns stdout as the pass text.
func (t *Tesseract) Recognize(ctx context.Context, src Source) (model.RecognitionPass, error) {
	cmd := exec.CommandContext(ctx, t.binPath, src.Path, "stdout", "-l", t.lang)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.RecognitionPass{}, eris.Wrapf(err, "ocr: tesseract failed for %s: %s", src.Path, stderr.String())
	}
	return model.RecognitionPass{Method: src.Method, Text: stdout.String()}, nil
}
