// Package extractor wraps the LLM boundary that turns free text into a
// partial CallData. One call per user turn, no automatic retries; callers
// degrade to the manual question flow on failure.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/salescribe/salescribe/internal/anthropic"
	"github.com/salescribe/salescribe/internal/record"
)

// Completer is the slice of the LLM client the gateway needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

type Gateway struct {
	llm    Completer
	logger *slog.Logger
	now    func() time.Time
}

func New(llm Completer, logger *slog.Logger) *Gateway {
	return &Gateway{llm: llm, logger: logger, now: time.Now}
}

// Extract runs one extraction pass over the accumulated text. The result is
// best effort: records may be missing or partially populated. An error means
// the LLM call or its output was unusable; no state should change on error.
func (g *Gateway) Extract(ctx context.Context, text string) (*record.CallData, error) {
	prompt := fmt.Sprintf(extractionUserPrompt, text)

	g.logger.Info("extracting call data", "text_len", len(text))

	raw, err := g.llm.Complete(ctx, systemPrompt, []anthropic.Message{
		{Role: "user", Content: prompt},
	}, 4096)
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	data, err := parseResponse(raw)
	if err != nil {
		g.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return nil, fmt.Errorf("parse extraction: %w", err)
	}

	data.Transcript = text
	postProcess(data, g.now())

	g.logger.Info("extraction complete",
		"has_account", data.Account != nil,
		"has_contact", data.Contact != nil,
		"has_opportunity", data.Opportunity != nil,
	)
	return data, nil
}

// parseResponse tolerates markdown fences and prose around the JSON object.
func parseResponse(raw string) (*record.CallData, error) {
	body := strings.TrimSpace(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	body = body[start : end+1]

	var data record.CallData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if data.Account == nil && data.Contact == nil && data.Opportunity == nil {
		return nil, fmt.Errorf("extraction returned no records")
	}
	return &data, nil
}
