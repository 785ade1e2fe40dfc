package ocr

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docextract/internal/model"
)

// PdfToText reads the text layer of born-digital PDFs with pdftotext.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText recognizer. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// Recognize runs pdftotext -layout on src and returns stdout as the pass text.
func (p *PdfToText) Recognize(ctx context.Context, src Source) (model.RecognitionPass, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", src.Path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.RecognitionPass{}, eris.Wrapf(err, "ocr: pdftotext failed for %s: %s", src.Path, stderr.String())
	}
	return model.RecognitionPass{Method: src.Method, Text: stdout.String()}, nil
}
