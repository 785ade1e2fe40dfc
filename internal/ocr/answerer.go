package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docextract/internal/answers"
	"github.com/sells-group/docextract/internal/config"
	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/pkg/anthropic"
)

// Answerer returns alias to answer pairs for a document's recognized text.
type Answerer interface {
	Answer(ctx context.Context, dt model.DocumentType, text string) (model.AnswerMap, error)
}

// LLMAnswerer asks a language model to answer each alias of a document
// type's table from recognized text.
type LLMAnswerer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	tables    answers.Tables
}

// NewLLMAnswerer creates an LLMAnswerer.
func NewLLMAnswerer(client anthropic.Client, cfg config.AnthropicConfig, tables answers.Tables) *LLMAnswerer {
	if tables == nil {
		tables = answers.DefaultTables()
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &LLMAnswerer{client: client, model: cfg.Model, maxTokens: maxTokens, tables: tables}
}

// Answer implements Answerer.
func (a *LLMAnswerer) Answer(ctx context.Context, dt model.DocumentType, text string) (model.AnswerMap, error) {
	t, ok := a.tables[dt]
	if !ok {
		return nil, eris.Wrapf(model.ErrUnsupportedDocumentType, "ocr: answer %q", dt)
	}

	temp := 0.0
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      Prompt(dt, t),
		Cache:       true,
		Messages:    []anthropic.Message{{Role: "user", Content: text}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: answer %s", dt)
	}
	resp.Usage.Log(a.model, string(dt))

	am, err := ParseAnswers(resp.Text)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: answer %s", dt)
	}
	return am, nil
}

// Prompt builds the system prompt listing the query keys of table t.
func Prompt(dt model.DocumentType, t answers.Table) string {
	s, _ := model.SchemaFor(dt)

	var b strings.Builder
	fmt.Fprintf(&b, "You read text recognized from a scanned %s.\n", strings.ReplaceAll(string(dt), "_", " "))
	b.WriteString("Reply with one JSON object and nothing else. Use exactly these keys:\n")
	for _, f := range s.Fields {
		aliases := t.Fields[f.Key]
		if len(aliases) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", aliases[0])
	}
	if s.HasOwners && t.OwnerName != "" {
		fmt.Fprintf(&b, "- %s and %s for each owner, numbered from 1 up to %d\n",
			fmt.Sprintf(t.OwnerName, 1), fmt.Sprintf(t.OwnerShare, 1), t.MaxOwners)
	}
	if t.MRZ != "" {
		fmt.Fprintf(&b, "- %s: the machine-readable zone lines, separated by newlines\n", t.MRZ)
	}
	b.WriteString("Dates are DD/MM/YYYY. Use an empty string when a value is not present. Never guess.")
	return b.String()
}

// ParseAnswers reads the first JSON object in text. Non-string values are
// formatted; nulls become empty answers.
func ParseAnswers(text string) (model.AnswerMap, error) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, eris.New("ocr: no JSON object in answer")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "ocr: parse answer JSON")
	}

	out := make(model.AnswerMap, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}
