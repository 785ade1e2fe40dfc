package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/resilience"
)

const (
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultMistralModel   = "mistral-ocr-latest"
)

// MistralOCR recognizes images and PDFs with the Mistral OCR API.
type MistralOCR struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// MistralOption configures a MistralOCR.
type MistralOption func(*MistralOCR)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) MistralOption {
	return func(m *MistralOCR) {
		if u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRateLimit paces requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64) MistralOption {
	return func(m *MistralOCR) {
		if rps > 0 {
			m.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) MistralOption {
	return func(m *MistralOCR) {
		if d > 0 {
			m.client.Timeout = d
		}
	}
}

// NewMistralOCR creates a MistralOCR recognizer. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string, opts ...MistralOption) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	m := &MistralOCR{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultMistralBaseURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Recognize uploads src inline and joins the returned pages.
func (m *MistralOCR) Recognize(ctx context.Context, src Source) (model.RecognitionPass, error) {
	doc, err := inlineDocument(src.Path)
	if err != nil {
		return model.RecognitionPass{}, err
	}

	body, err := json.Marshal(mistralOCRRequest{Model: m.model, Document: doc})
	if err != nil {
		return model.RecognitionPass{}, eris.Wrap(err, "ocr: marshal mistral request")
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return model.RecognitionPass{}, eris.Wrap(err, "ocr: mistral rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/ocr", bytes.NewReader(body))
	if err != nil {
		return model.RecognitionPass{}, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return model.RecognitionPass{}, eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RecognitionPass{}, eris.Wrap(err, "ocr: read mistral response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("ocr: mistral API returned %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return model.RecognitionPass{}, resilience.NewTransientError(err, resp.StatusCode)
		}
		return model.RecognitionPass{}, err
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return model.RecognitionPass{}, eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	pages := make([]string, 0, len(ocrResp.Pages))
	for _, p := range ocrResp.Pages {
		pages = append(pages, p.Markdown)
	}
	return model.RecognitionPass{Method: src.Method, Text: strings.Join(pages, "\n\n")}, nil
}

// inlineDocument encodes a file as a data URL, as an image or a document
// depending on its extension.
func inlineDocument(path string) (mistralOCRDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mistralOCRDocument{}, eris.Wrapf(err, "ocr: read %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	mt := mime.TypeByExtension(ext)
	if ext == ".pdf" || mt == "" {
		mt = "application/pdf"
	}
	url := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)

	if strings.HasPrefix(mt, "image/") {
		return mistralOCRDocument{Type: "image_url", ImageURL: url}, nil
	}
	return mistralOCRDocument{Type: "document_url", DocumentURL: url}, nil
}
