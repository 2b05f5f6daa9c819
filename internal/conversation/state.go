// Package conversation drives the per-session collection dialogue: extract
// what the transcript gives us, ask for what it doesn't, verify each record
// with the user, then hand the result to the CRM boundary.
package conversation

import (
	"time"

	"github.com/salescribe/salescribe/internal/merge"
	"github.com/salescribe/salescribe/internal/record"
)

// Stage is the conversation's position in the collection flow.
type Stage string

const (
	StageTranscriptInput   Stage = "transcript_input"
	StageChatCollection    Stage = "chat_collection"
	StageAccountEdit       Stage = "account_edit"
	StageAccountVerify     Stage = "account_verify"
	StageContactEdit       Stage = "contact_edit"
	StageContactVerify     Stage = "contact_verify"
	StageOpportunityEdit   Stage = "opportunity_edit"
	StageOpportunityVerify Stage = "opportunity_verify"
	StageFinalReview       Stage = "final_review"
	StageComplete          Stage = "complete"
)

var editStages = map[record.Category]Stage{
	record.CategoryAccount:     StageAccountEdit,
	record.CategoryContact:     StageContactEdit,
	record.CategoryOpportunity: StageOpportunityEdit,
}

var verifyStages = map[record.Category]Stage{
	record.CategoryAccount:     StageAccountVerify,
	record.CategoryContact:     StageContactVerify,
	record.CategoryOpportunity: StageOpportunityVerify,
}

// EditStage returns the edit stage for a category.
func EditStage(cat record.Category) Stage { return editStages[cat] }

// VerifyStage returns the verification stage for a category.
func VerifyStage(cat record.Category) Stage { return verifyStages[cat] }

// StageCategory returns the category an edit or verify stage belongs to, or
// "" for the flow stages.
func StageCategory(s Stage) record.Category {
	switch s {
	case StageAccountEdit, StageAccountVerify:
		return record.CategoryAccount
	case StageContactEdit, StageContactVerify:
		return record.CategoryContact
	case StageOpportunityEdit, StageOpportunityVerify:
		return record.CategoryOpportunity
	}
	return ""
}

// Message is one entry in the session's dialogue log.
type Message struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// State is everything one session owns. It is mutated only by the Controller
// under the session's lock; nothing here is shared across sessions.
type State struct {
	ID             string
	Stage          Stage
	Messages       []Message
	Extracted      *record.CallData // last full extraction, replaced wholesale
	Manual         merge.Manual
	Verified       map[record.Category]bool
	QuestionsAsked []string

	// Editing is the category the user explicitly reopened from its verify
	// stage. While set, the edit form stays open even if the category is
	// already complete; a field save clears it.
	Editing record.Category
}

// NewState returns a fresh session state at the transcript stage.
func NewState(id string) *State {
	s := &State{ID: id}
	s.Reset()
	return s
}

// Reset clears everything except the session identity.
func (s *State) Reset() {
	s.Stage = StageTranscriptInput
	s.Messages = nil
	s.Extracted = nil
	s.Manual = merge.NewManual()
	s.Verified = map[record.Category]bool{
		record.CategoryAccount:     false,
		record.CategoryContact:     false,
		record.CategoryOpportunity: false,
	}
	s.QuestionsAsked = nil
	s.Editing = ""
}

// Combined is the merged view of the last extraction and all manual inputs.
func (s *State) Combined() *record.CallData {
	return merge.Combine(s.Extracted, s.Manual)
}

// Asked reports whether a question id is already in the asked log.
func (s *State) Asked(id string) bool {
	for _, q := range s.QuestionsAsked {
		if q == id {
			return true
		}
	}
	return false
}

// MarkAsked appends a question id, refusing duplicates. Returns false when the
// question was already asked.
func (s *State) MarkAsked(id string) bool {
	if s.Asked(id) {
		return false
	}
	s.QuestionsAsked = append(s.QuestionsAsked, id)
	return true
}

// HasAssistantMessage reports whether the assistant already said exactly this
// since the user last spoke. It is the idempotence check behind informational
// prompts; scoping it to the latest turn means a prompt repeats after new user
// input even when the rendered text is unchanged.
func (s *State) HasAssistantMessage(text string) bool {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == "user" {
			return false
		}
		if m.Role == "assistant" && m.Text == text {
			return true
		}
	}
	return false
}

// UserText concatenates all user turns, oldest first. Chat-collection
// extraction runs over this accumulated text.
func (s *State) UserText() string {
	var out string
	for _, m := range s.Messages {
		if m.Role != "user" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += m.Text
	}
	return out
}
