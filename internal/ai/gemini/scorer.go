package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/ai"
	"github.com/emberdate/matchkit/internal/util"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Scorer asks Gemini to rate the alignment of two documents and extracts a
// normalized value from whatever the model sends back.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewScorer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, a, b ai.Document, instruction string) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("both documents are required")
	}

	docA, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal document a: %w", err)
	}

	docB, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal document b: %w", err)
	}

	prompt := buildPrompt(string(docA), string(docB), instruction)

	s.logger.Debug("gemini score request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("gemini score response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
	)

	value, err := parseValue(raw)
	if err != nil {
		return 0, err
	}

	return value, nil
}

func buildPrompt(docA, docB, instruction string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "{{INSTRUCTION}}\n\nDocument A:\n{{DOC_A}}\n\nDocument B:\n{{DOC_B}}\n\nJSON Response:"
	}
	if strings.TrimSpace(instruction) == "" {
		instruction = "Rate the overall compatibility of the two documents."
	}

	prompt := strings.ReplaceAll(template, "{{INSTRUCTION}}", instruction)
	prompt = strings.ReplaceAll(prompt, "{{DOC_A}}", docA)
	prompt = strings.ReplaceAll(prompt, "{{DOC_B}}", docB)
	return prompt
}

// parseValue extracts the "value" field from the model response. The model is
// untrusted: the payload may be fenced, partial, or not JSON at all.
func parseValue(raw string) (float64, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return 0, fmt.Errorf("parse gemini response: %w", err)
	}

	value := coerceFloat(data["value"])
	if math.IsNaN(value) {
		return 0, fmt.Errorf("gemini response is missing a numeric value")
	}

	return value, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

var _ ai.Scorer = (*Scorer)(nil)
