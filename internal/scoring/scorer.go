package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/salescribe/salescribe/internal/anthropic"
)

// MetricScore is the graded result for one rubric metric.
type MetricScore struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Evidence string `json:"evidence"`
}

// DomainScore aggregates one domain's metric scores.
type DomainScore struct {
	Domain    string        `json:"domain"`
	Points    int           `json:"points"`
	MaxPoints int           `json:"max_points"`
	Metrics   []MetricScore `json:"metrics"`
}

// Scorecard is the complete graded rubric for a transcript.
type Scorecard struct {
	Total     int           `json:"total"`
	MaxTotal  int           `json:"max_total"`
	Summary   string        `json:"summary"`
	Domains   []DomainScore `json:"domains"`
	Strengths []string      `json:"strengths"`
	Improve   []string      `json:"areas_for_improvement"`
}

// Completer is the LLM call surface the scorer needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

// Scorer grades transcripts against the rubric.
type Scorer struct {
	llm    Completer
	logger *slog.Logger
}

func New(llm Completer, logger *slog.Logger) *Scorer {
	return &Scorer{llm: llm, logger: logger}
}

const scoreSystemPrompt = `You are a world-class sales coach who evaluates enterprise sales calls.
You score transcripts strictly against the rubric you are given, citing evidence
from the transcript for every metric. You respond with JSON only.`

func scoreUserPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString(promptRubric())
	b.WriteString(`Score the transcript below against every metric. Respond with ONLY a JSON object in this exact shape:

{
  "summary": "two sentence overall assessment",
  "domains": [
    {
      "domain": "I",
      "metrics": [
        {"name": "metric name", "score": 0, "evidence": "quote or observation from the transcript"}
      ]
    }
  ],
  "strengths": ["..."],
  "areas_for_improvement": ["..."]
}

Include every domain and every metric. Never exceed a metric's maximum score.

TRANSCRIPT:
`)
	b.WriteString(transcript)
	return b.String()
}

// Score grades the transcript. Metric scores are clamped to their rubric
// maxima and section and overall totals are recomputed server-side, so a
// misbehaving model cannot inflate the result.
func (s *Scorer) Score(ctx context.Context, transcript string) (*Scorecard, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("scoring: empty transcript")
	}

	messages := []anthropic.Message{
		{Role: "user", Content: scoreUserPrompt(transcript)},
	}
	raw, err := s.llm.Complete(ctx, scoreSystemPrompt, messages, 4096)
	if err != nil {
		return nil, fmt.Errorf("scoring: llm call: %w", err)
	}

	card, err := parseScorecard(raw)
	if err != nil {
		s.logger.Error("scorecard parse failed", "error", err)
		return nil, err
	}

	s.logger.Info("transcript scored", "total", card.Total, "max_total", card.MaxTotal)
	return card, nil
}

type rawCard struct {
	Summary string `json:"summary"`
	Domains []struct {
		Domain  string `json:"domain"`
		Metrics []struct {
			Name     string `json:"name"`
			Score    int    `json:"score"`
			Evidence string `json:"evidence"`
		} `json:"metrics"`
	} `json:"domains"`
	Strengths []string `json:"strengths"`
	Improve   []string `json:"areas_for_improvement"`
}

func parseScorecard(raw string) (*Scorecard, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("scoring: no JSON object in response")
	}

	var in rawCard
	if err := json.Unmarshal([]byte(raw[start:end+1]), &in); err != nil {
		return nil, fmt.Errorf("scoring: decode response: %w", err)
	}

	byDomain := make(map[string]map[string]int)
	evidence := make(map[string]map[string]string)
	for _, d := range in.Domains {
		id := strings.TrimSpace(d.Domain)
		if byDomain[id] == nil {
			byDomain[id] = make(map[string]int)
			evidence[id] = make(map[string]string)
		}
		for _, m := range d.Metrics {
			byDomain[id][m.Name] = m.Score
			evidence[id][m.Name] = m.Evidence
		}
	}

	card := &Scorecard{
		MaxTotal:  MaxTotal,
		Summary:   strings.TrimSpace(in.Summary),
		Strengths: in.Strengths,
		Improve:   in.Improve,
	}

	// Walk the canonical rubric, not the model's output, so missing
	// metrics score zero and unknown metrics are ignored.
	for _, d := range Rubric {
		ds := DomainScore{Domain: d.ID, MaxPoints: d.MaxPoints}
		for _, m := range d.Metrics {
			score := byDomain[d.ID][m.Name]
			if score < 0 {
				score = 0
			}
			if score > m.MaxScore {
				score = m.MaxScore
			}
			ds.Metrics = append(ds.Metrics, MetricScore{
				Name:     m.Name,
				Score:    score,
				MaxScore: m.MaxScore,
				Evidence: strings.TrimSpace(evidence[d.ID][m.Name]),
			})
			ds.Points += score
		}
		if ds.Points > ds.MaxPoints {
			ds.Points = ds.MaxPoints
		}
		card.Total += ds.Points
		card.Domains = append(card.Domains, ds)
	}
	if card.Total > card.MaxTotal {
		card.Total = card.MaxTotal
	}
	return card, nil
}

// Render formats a scorecard as readable text.
func Render(card *Scorecard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Call Score: %d / %d\n\n", card.Total, card.MaxTotal)
	if card.Summary != "" {
		b.WriteString(card.Summary)
		b.WriteString("\n\n")
	}
	for _, d := range card.Domains {
		fmt.Fprintf(&b, "Domain %s: %d / %d\n", d.Domain, d.Points, d.MaxPoints)
		for _, m := range d.Metrics {
			fmt.Fprintf(&b, "  %s: %d/%d", m.Name, m.Score, m.MaxScore)
			if m.Evidence != "" {
				fmt.Fprintf(&b, " (%s)", m.Evidence)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(card.Strengths) > 0 {
		b.WriteString("Strengths:\n")
		for _, s := range card.Strengths {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}
	if len(card.Improve) > 0 {
		b.WriteString("Areas for improvement:\n")
		for _, s := range card.Improve {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}
	return b.String()
}
