package summary

import (
	"strings"
	"testing"

	"github.com/salescribe/salescribe/internal/record"
)

func fullData() *record.CallData {
	amount := 250000.0
	revenue := 12000000.0
	employees := 340
	weeks := 16
	return &record.CallData{
		Account: &record.Account{
			Name:              "Globex",
			Industry:          "Manufacturing",
			BillingCity:       "Springfield",
			BillingCountry:    "USA",
			AnnualRevenue:     &revenue,
			NumberOfEmployees: &employees,
		},
		Contact: &record.Contact{
			FirstName: "Hank",
			LastName:  "Scorpio",
			Title:     "VP Operations",
		},
		Opportunity: &record.Opportunity{
			Name:               "Globex - Platform Migration",
			Amount:             &amount,
			CloseDate:          "2026-12-31",
			ProjectedStartDate: "2026-10-01",
			NumberOfWeeks:      &weeks,
			NextSteps:          "Send proposal by Friday.",
			DealSummary:        "[2026-09-01 14:03] Globex wants to migrate. The current stack is failing. The team is motivated. Budget is approved. Timeline is tight.",
			MEDDIC: &record.MEDDIC{
				MetricsNotes:       "30% cost reduction target",
				EconomicBuyerNotes: "CFO signs off above 100k",
				Champion:           "Hank Scorpio",
				IdentifiedPain:     "Legacy system outages",
			},
		},
	}
}

func TestRender_FullRecord(t *testing.T) {
	out := Render(fullData())

	for _, want := range []string{
		"DEAL SUMMARY",
		"1. Executive Summary",
		"2. Situation & Client Context",
		"3. The Project & Immediate Value",
		"4. Strategic Impact & Path to Scale",
		"Client: Globex",
		"Industry: Manufacturing",
		"Location: Springfield, USA",
		"Annual revenue: $12000000",
		"Employees: 340",
		"Primary contact: Hank Scorpio",
		"Title: VP Operations",
		"Objective: Platform Migration",
		"Start date: 2026-10-01",
		"Close date: 2026-12-31",
		"Duration: 16 weeks",
		"Project value: $250000",
		"Core challenge: Legacy system outages",
		"Business value & metrics: 30% cost reduction target",
		"Next steps: Send proposal by Friday.",
		"Economic buyer: CFO signs off above 100k",
		"Champion: Hank Scorpio",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestRender_SynthesisStripsTimestampsAndTruncates(t *testing.T) {
	out := Render(fullData())

	if strings.Contains(out, "[2026-09-01") {
		t.Errorf("timestamp not stripped:\n%s", out)
	}
	if !strings.Contains(out, "Globex wants to migrate. The current stack is failing. The team is motivated.") {
		t.Errorf("synthesis should keep the first three sentences:\n%s", out)
	}
	if strings.Contains(out, "Budget is approved") {
		t.Errorf("synthesis should drop sentences past the third:\n%s", out)
	}
}

func TestRender_SynthesisFallsBackToCallSummary(t *testing.T) {
	data := &record.CallData{Summary: "Short discovery call with Initech."}
	out := Render(data)

	if !strings.Contains(out, "Short discovery call with Initech.") {
		t.Errorf("call summary fallback missing:\n%s", out)
	}
}

func TestRender_ObjectiveKeepsNameWithoutConvention(t *testing.T) {
	data := &record.CallData{
		Opportunity: &record.Opportunity{Name: "Renewal FY27"},
	}
	out := Render(data)

	if !strings.Contains(out, "Objective: Renewal FY27") {
		t.Errorf("unhyphenated name should pass through:\n%s", out)
	}
}

func TestRender_EmptyRecordUsesPlaceholders(t *testing.T) {
	out := Render(&record.CallData{})

	if got := strings.Count(out, placeholder); got != 4 {
		t.Errorf("placeholder count = %d, want 4\n%s", got, out)
	}
	if strings.Contains(out, "Core challenge:") || strings.Contains(out, "Champion:") {
		t.Errorf("optional lines should be absent on an empty record:\n%s", out)
	}
}

func TestRender_NilMEDDICIsSafe(t *testing.T) {
	data := &record.CallData{
		Opportunity: &record.Opportunity{Name: "Acme - Audit"},
	}
	out := Render(data)

	if !strings.Contains(out, "Objective: Audit") {
		t.Errorf("project section missing:\n%s", out)
	}
	if !strings.Contains(out, "4. Strategic Impact") {
		t.Errorf("strategic section missing:\n%s", out)
	}
}
