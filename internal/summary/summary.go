// Package summary renders the structured deal-summary document from a
// completed call record. The output is plain text consumed by the API and
// Slack surfaces.
package summary

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/salescribe/salescribe/internal/record"
)

var timestampRe = regexp.MustCompile(`\[[^\]]*\]\s*`)

const placeholder = "To be completed based on the call discussion."

// Render produces the four-section deal summary: punchline, client context,
// project and value, strategic impact.
func Render(data *record.CallData) string {
	var b strings.Builder

	b.WriteString("DEAL SUMMARY\n")

	b.WriteString("\n1. Executive Summary\n")
	b.WriteString(keySynthesis(data) + "\n")

	b.WriteString("\n2. Situation & Client Context\n")
	b.WriteString(clientOverview(data) + "\n")
	if pain := meddicField(data, func(m *record.MEDDIC) string { return m.IdentifiedPain }); pain != "" {
		b.WriteString("Core challenge: " + pain + "\n")
	}

	b.WriteString("\n3. The Project & Immediate Value\n")
	b.WriteString(projectScope(data) + "\n")
	if metrics := meddicField(data, func(m *record.MEDDIC) string { return m.MetricsNotes }); metrics != "" {
		b.WriteString("Business value & metrics: " + metrics + "\n")
	}
	if data.Opportunity != nil && data.Opportunity.NextSteps != "" {
		b.WriteString("Next steps: " + data.Opportunity.NextSteps + "\n")
	}

	b.WriteString("\n4. Strategic Impact & Path to Scale\n")
	wrote := false
	if buyer := meddicField(data, func(m *record.MEDDIC) string { return m.EconomicBuyerNotes }); buyer != "" {
		b.WriteString("Economic buyer: " + buyer + "\n")
		wrote = true
	}
	if champ := meddicField(data, func(m *record.MEDDIC) string { return m.Champion }); champ != "" {
		b.WriteString("Champion: " + champ + "\n")
		wrote = true
	}
	if !wrote {
		b.WriteString(placeholder + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func meddicField(data *record.CallData, get func(*record.MEDDIC) string) string {
	if data.Opportunity == nil || data.Opportunity.MEDDIC == nil {
		return ""
	}
	return strings.TrimSpace(get(data.Opportunity.MEDDIC))
}

// keySynthesis extracts the first few sentences of the deal summary, minus
// capture timestamps.
func keySynthesis(data *record.CallData) string {
	var text string
	if data.Opportunity != nil && data.Opportunity.DealSummary != "" {
		text = data.Opportunity.DealSummary
	} else if data.Summary != "" {
		text = data.Summary
	}
	if text == "" {
		return placeholder
	}
	text = timestampRe.ReplaceAllString(text, "")

	var sentences []string
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return placeholder
	}
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	return strings.Join(sentences, ". ") + "."
}

func clientOverview(data *record.CallData) string {
	var lines []string
	if a := data.Account; a != nil {
		if a.Name != "" {
			lines = append(lines, "Client: "+a.Name)
		}
		if a.Industry != "" {
			lines = append(lines, "Industry: "+a.Industry)
		}
		if a.BillingCity != "" && a.BillingCountry != "" {
			lines = append(lines, "Location: "+a.BillingCity+", "+a.BillingCountry)
		}
		if a.AnnualRevenue != nil {
			lines = append(lines, fmt.Sprintf("Annual revenue: $%.0f", *a.AnnualRevenue))
		}
		if a.NumberOfEmployees != nil {
			lines = append(lines, fmt.Sprintf("Employees: %d", *a.NumberOfEmployees))
		}
	}
	if c := data.Contact; c != nil {
		name := strings.TrimSpace(c.FirstName + " " + c.LastName)
		if name != "" {
			lines = append(lines, "Primary contact: "+name)
		}
		if c.Title != "" {
			lines = append(lines, "Title: "+c.Title)
		}
	}
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}

func projectScope(data *record.CallData) string {
	o := data.Opportunity
	if o == nil {
		return placeholder
	}
	var lines []string
	if o.Name != "" {
		// Opportunity names follow the "Account - Project" convention; the
		// project half is the objective.
		if _, project, found := strings.Cut(o.Name, " - "); found {
			lines = append(lines, "Objective: "+project)
		} else {
			lines = append(lines, "Objective: "+o.Name)
		}
	}
	if o.ProjectedStartDate != "" {
		lines = append(lines, "Start date: "+o.ProjectedStartDate)
	}
	if o.CloseDate != "" {
		lines = append(lines, "Close date: "+o.CloseDate)
	}
	if o.NumberOfWeeks != nil {
		lines = append(lines, fmt.Sprintf("Duration: %d weeks", *o.NumberOfWeeks))
	}
	if o.Amount != nil {
		lines = append(lines, fmt.Sprintf("Project value: $%.0f", *o.Amount))
	}
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}
