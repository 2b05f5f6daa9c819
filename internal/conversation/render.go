package conversation

import (
	"fmt"
	"strings"

	"github.com/salescribe/salescribe/internal/fields"
	"github.com/salescribe/salescribe/internal/record"
)

const welcomeText = "Hello! I'm your sales assistant. I'll help you extract information from call transcripts and create CRM records.\n\nYou can either upload or paste your call transcript, or provide the information through chat if you don't have one."

const completeText = "All done! Your CRM records have been processed. Reset the conversation to process another transcript."

// Render emits the informational content for the current stage. It is
// idempotent: rendering the same state twice with no new input appends
// nothing. Edit stages auto-advance to verification when the combined record
// is already complete, so rendering loops until the stage settles.
func (c *Controller) Render(st *State) {
	for {
		before := st.Stage
		c.renderStage(st)
		if st.Stage == before {
			return
		}
	}
}

func (c *Controller) renderStage(st *State) {
	switch st.Stage {
	case StageTranscriptInput:
		if len(st.Messages) == 0 {
			c.addInfo(st, welcomeText)
		}

	case StageChatCollection:
		// Open with the highest-priority question if nothing was asked yet.
		if len(st.QuestionsAsked) == 0 {
			if q := fields.NextQuestion(st.Combined(), st.QuestionsAsked); q != nil {
				st.MarkAsked(fields.QuestionID(q.Category, q.FieldID))
				c.addInfo(st, q.Text)
			}
		}

	case StageAccountEdit, StageContactEdit, StageOpportunityEdit:
		cat := StageCategory(st.Stage)
		combined := st.Combined()
		c.addInfo(st, formatEntity(cat, combined))

		missing := fields.Missing(cat, combined)
		if len(missing) == 0 {
			// A category the user explicitly reopened keeps its form open
			// until the next save; forward flow skips straight to verify.
			if st.Editing == cat {
				c.addInfo(st, "Update any "+string(cat)+" fields you'd like to change, then save.")
				return
			}
			st.Stage = VerifyStage(cat)
			return
		}
		c.addInfo(st, missingPrompt(cat, missing))

	case StageAccountVerify, StageContactVerify, StageOpportunityVerify:
		cat := StageCategory(st.Stage)
		c.addInfo(st, "Please review and verify the "+string(cat)+" information:\n\n"+formatEntity(cat, st.Combined()))

	case StageFinalReview:
		combined := st.Combined()
		var b strings.Builder
		b.WriteString("Final review — here's everything that will be sent to the CRM:\n")
		for _, cat := range record.Categories {
			b.WriteString("\n" + formatEntity(cat, combined) + "\n")
		}
		if combined.Opportunity != nil && combined.Opportunity.MEDDIC != nil {
			b.WriteString(fmt.Sprintf("\nMEDDIC completeness: %.0f%%\n", combined.Opportunity.MEDDIC.Completeness()*100))
		}
		c.addInfo(st, strings.TrimRight(b.String(), "\n"))

	case StageComplete:
		c.addInfo(st, completeText)
	}
}

func missingPrompt(cat record.Category, missing []string) string {
	labels := make([]string, len(missing))
	for i, id := range missing {
		labels[i] = fieldLabel(id)
	}
	return "I need the following required fields to complete the " + string(cat) +
		":\n\nMissing: " + strings.Join(labels, ", ") + "\n\nPlease fill them in."
}

func fieldLabel(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// formatEntity renders an entity for the dialogue log, skipping absent
// fields.
func formatEntity(cat record.Category, data *record.CallData) string {
	header := strings.ToUpper(string(cat)[:1]) + string(cat)[1:] + " information:"
	var lines []string

	switch cat {
	case record.CategoryAccount:
		if data == nil || data.Account == nil {
			return header + "\n  (nothing extracted yet)"
		}
		a := data.Account
		lines = appendLine(lines, "Name", a.Name)
		lines = appendLine(lines, "Currency", a.Currency)
		lines = appendLine(lines, "Region", a.Region)
		lines = appendLine(lines, "Industry", a.Industry)
		lines = appendLine(lines, "Website", a.Website)
		lines = appendLine(lines, "City", a.BillingCity)
		lines = appendLine(lines, "State", a.BillingState)
		lines = appendLine(lines, "Country", a.BillingCountry)
		if a.AnnualRevenue != nil {
			lines = append(lines, fmt.Sprintf("  • Annual Revenue: $%.0f", *a.AnnualRevenue))
		}
		if a.NumberOfEmployees != nil {
			lines = append(lines, fmt.Sprintf("  • Employees: %d", *a.NumberOfEmployees))
		}

	case record.CategoryContact:
		if data == nil || data.Contact == nil {
			return header + "\n  (nothing extracted yet)"
		}
		ct := data.Contact
		lines = appendLine(lines, "First Name", ct.FirstName)
		lines = appendLine(lines, "Last Name", ct.LastName)
		lines = appendLine(lines, "Email", ct.Email)
		lines = appendLine(lines, "Phone", ct.Phone)
		lines = appendLine(lines, "Title", ct.Title)

	case record.CategoryOpportunity:
		if data == nil || data.Opportunity == nil {
			return header + "\n  (nothing extracted yet)"
		}
		o := data.Opportunity
		lines = appendLine(lines, "Name", o.Name)
		if o.Amount != nil {
			lines = append(lines, fmt.Sprintf("  • Amount: $%.0f", *o.Amount))
		}
		lines = appendLine(lines, "Close Date", o.CloseDate)
		lines = appendLine(lines, "Stage", o.Stage)
		lines = appendLine(lines, "Next Steps", o.NextSteps)
	}

	if len(lines) == 0 {
		return header + "\n  (nothing extracted yet)"
	}
	return header + "\n" + strings.Join(lines, "\n")
}

func appendLine(lines []string, label, value string) []string {
	if value == "" {
		return lines
	}
	return append(lines, "  • "+label+": "+value)
}
