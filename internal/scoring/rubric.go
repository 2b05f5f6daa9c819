// Package scoring grades a sales-call transcript against the fixed
// 100-point coaching rubric via the LLM and validates the returned breakdown.
package scoring

import (
	"fmt"
	"strings"
)

// Metric is one scored line item of the rubric.
type Metric struct {
	Name        string
	MaxScore    int
	Measurement string
}

// Domain groups metrics with a capped section total.
type Domain struct {
	ID        string
	Name      string
	MaxPoints int
	Metrics   []Metric
}

// MaxTotal is the rubric ceiling.
const MaxTotal = 100

// Rubric is the fixed 30/40/30 coaching framework.
var Rubric = []Domain{
	{
		ID:        "I",
		Name:      "Focus & Scope: The Strategic Architect",
		MaxPoints: 30,
		Metrics: []Metric{
			{Name: "C-Suite Relevance", MaxScore: 10, Measurement: "Conversation stays at executive altitude: business outcomes, not feature tours."},
			{Name: "Transformation Focus", MaxScore: 10, Measurement: "Positions the engagement as a transformation, not a point solution."},
			{Name: "Business Value Translation", MaxScore: 10, Measurement: "Translates capabilities into quantified business value."},
		},
	},
	{
		ID:        "II",
		Name:      "Deal Qualification: The MEDDPICC Master",
		MaxPoints: 40,
		Metrics: []Metric{
			{Name: "Metrics & Identified Pain", MaxScore: 10, Measurement: "Surfaces quantifiable pain and the metrics that prove it."},
			{Name: "Economic Buyer Access", MaxScore: 10, Measurement: "Identifies and builds a path to the budget holder."},
			{Name: "Decision Process", MaxScore: 10, Measurement: "Maps the steps, criteria and timeline to a decision."},
			{Name: "Champion Testing", MaxScore: 10, Measurement: "Tests whether the champion will sell internally."},
		},
	},
	{
		ID:        "III",
		Name:      "Execution & Control: The Closer",
		MaxPoints: 30,
		Metrics: []Metric{
			{Name: "Next Step Commitment", MaxScore: 10, Measurement: "Closes with a concrete, dated, mutual next step."},
			{Name: "Objection Navigation", MaxScore: 10, Measurement: "Handles objections with evidence instead of deflection."},
			{Name: "Call Control", MaxScore: 10, Measurement: "Keeps the agenda while leaving room for discovery."},
		},
	},
}

// promptRubric renders the rubric tables plus scoring rules for the LLM.
func promptRubric() string {
	var b strings.Builder
	b.WriteString("# Sales Call Scoring Rubric\n\n")
	b.WriteString("## SCORING RULES:\n")
	b.WriteString("- Each metric has a MAXIMUM score you cannot exceed.\n")
	b.WriteString("- Each domain total is the sum of its metric scores and cannot exceed the domain maximum.\n")
	b.WriteString(fmt.Sprintf("- The overall total cannot exceed %d points.\n\n", MaxTotal))

	for _, d := range Rubric {
		b.WriteString(fmt.Sprintf("## DOMAIN %s: %s (maximum %d points)\n", d.ID, d.Name, d.MaxPoints))
		b.WriteString("| Metric | Max | Measurement |\n|---|---|---|\n")
		for _, m := range d.Metrics {
			b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", m.Name, m.MaxScore, m.Measurement))
		}
		b.WriteString("\n")
	}
	return b.String()
}
