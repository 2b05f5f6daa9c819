package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/salescribe/salescribe/internal/crm"
	"github.com/salescribe/salescribe/internal/fields"
	"github.com/salescribe/salescribe/internal/merge"
	"github.com/salescribe/salescribe/internal/record"
)

// ActionType enumerates what a user can do in one turn.
type ActionType string

const (
	ActionSubmitTranscript ActionType = "submit_transcript"
	ActionStartChat        ActionType = "start_chat"
	ActionChatMessage      ActionType = "chat_message"
	ActionSaveFields       ActionType = "save_fields"
	ActionConfirm          ActionType = "confirm"
	ActionEdit             ActionType = "edit"
	ActionBack             ActionType = "back"
	ActionSubmit           ActionType = "submit"
	ActionReset            ActionType = "reset"
)

// Action is one user turn. Text carries transcript or chat input, Fields a
// form submission.
type Action struct {
	Type   ActionType        `json:"type"`
	Text   string            `json:"text,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Extractor is the LLM extraction boundary.
type Extractor interface {
	Extract(ctx context.Context, text string) (*record.CallData, error)
}

// SubmitHook runs after a FINAL_REVIEW submission with the itemized CRM
// result. Wire-up point for the audit store and notifiers.
type SubmitHook func(ctx context.Context, st *State, data *record.CallData, res crm.Result)

// Controller is the per-session state machine. It owns no state of its own
// beyond collaborators; all mutation happens on the State it is handed, one
// action at a time.
type Controller struct {
	extractor Extractor
	crm       crm.Client
	logger    *slog.Logger
	onSubmit  SubmitHook
	now       func() time.Time
}

func NewController(ext Extractor, crmClient crm.Client, logger *slog.Logger) *Controller {
	return &Controller{
		extractor: ext,
		crm:       crmClient,
		logger:    logger,
		now:       time.Now,
	}
}

// OnSubmit registers the post-submission hook.
func (c *Controller) OnSubmit(h SubmitHook) { c.onSubmit = h }

// Apply processes exactly one user action to completion, including at most
// one extraction call, then re-renders the resulting stage. Collaborator
// failures become messages, never returned errors; the only error is an
// action that does not exist.
func (c *Controller) Apply(ctx context.Context, st *State, act Action) error {
	switch act.Type {
	case ActionSubmitTranscript:
		c.handleTranscript(ctx, st, act.Text)
	case ActionStartChat:
		c.handleStartChat(st)
	case ActionChatMessage:
		c.handleChatMessage(ctx, st, act.Text)
	case ActionSaveFields:
		c.handleSaveFields(st, act.Fields)
	case ActionConfirm:
		c.handleConfirm(st)
	case ActionEdit:
		c.handleEdit(st)
	case ActionBack:
		c.handleBack(st)
	case ActionSubmit:
		c.handleSubmit(ctx, st)
	case ActionReset:
		st.Reset()
	default:
		return fmt.Errorf("unknown action type %q", act.Type)
	}
	c.Render(st)
	return nil
}

func (c *Controller) handleTranscript(ctx context.Context, st *State, text string) {
	if st.Stage != StageTranscriptInput {
		c.logger.Warn("transcript submitted outside transcript stage", "stage", st.Stage)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.addAssistant(st, "Please provide a transcript to process.")
		return
	}

	c.addUser(st, fmt.Sprintf("Transcript uploaded (%d characters)", len(text)))

	extracted, err := c.extractor.Extract(ctx, text)
	if err != nil {
		c.logger.Error("transcript extraction failed", "session", st.ID, "error", err)
		c.fallbackQuestion(st)
		return
	}

	st.Extracted = extracted
	c.addAssistant(st, "I've processed your transcript. Let's go through the details step by step, starting with the account information.")
	st.Stage = StageAccountEdit
}

func (c *Controller) handleStartChat(st *State) {
	if st.Stage != StageTranscriptInput {
		c.logger.Warn("start-chat outside transcript stage", "stage", st.Stage)
		return
	}
	c.addUser(st, "I'd like to provide the information in chat")
	c.addAssistant(st, "Great! I'll guide you through collecting the information we need, one question at a time.")
	st.Stage = StageChatCollection
}

func (c *Controller) handleChatMessage(ctx context.Context, st *State, text string) {
	if st.Stage != StageChatCollection {
		c.logger.Warn("chat message outside collection stage", "stage", st.Stage)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.addUser(st, text)

	extracted, err := c.extractor.Extract(ctx, st.UserText())
	if err != nil {
		c.logger.Warn("chat extraction failed", "session", st.ID, "error", err)
		c.fallbackQuestion(st)
		return
	}
	st.Extracted = extracted

	ack := c.acknowledge(st, extracted)
	q := fields.NextQuestion(st.Combined(), st.QuestionsAsked)
	if q != nil {
		st.MarkAsked(fields.QuestionID(q.Category, q.FieldID))
		c.addAssistant(st, ack+q.Text)
		return
	}

	c.addAssistant(st, ack+"I've collected all the required information. Let's organize it step by step, starting with the account.")
	st.Stage = StageAccountEdit
}

// acknowledge names what the latest extraction captured for the first time.
func (c *Controller) acknowledge(st *State, data *record.CallData) string {
	var parts []string
	if data.Account != nil && data.Account.Name != "" {
		parts = append(parts, "Company: "+data.Account.Name)
	}
	if data.Contact != nil && data.Contact.LastName != "" {
		name := strings.TrimSpace(data.Contact.FirstName + " " + data.Contact.LastName)
		parts = append(parts, "Contact: "+name)
	}
	if data.Opportunity != nil && data.Opportunity.Name != "" {
		parts = append(parts, "Opportunity: "+data.Opportunity.Name)
	}
	if len(parts) == 0 {
		return "Got it. "
	}
	return "Thanks! " + strings.Join(parts, ", ") + ". "
}

// fallbackQuestion keeps the dialogue moving when extraction gave us nothing:
// ask the highest-priority unfilled question, account name first of all.
func (c *Controller) fallbackQuestion(st *State) {
	q := fields.NextQuestion(st.Combined(), st.QuestionsAsked)
	if q == nil {
		c.addAssistant(st, "Thanks! Please continue providing information and I'll ask follow-up questions as needed.")
		return
	}
	st.MarkAsked(fields.QuestionID(q.Category, q.FieldID))
	c.addAssistant(st, "I couldn't extract anything from that yet. "+q.Text)
}

func (c *Controller) handleSaveFields(st *State, vals map[string]string) {
	cat := StageCategory(st.Stage)
	if cat == "" || st.Stage != EditStage(cat) {
		c.logger.Warn("field save outside an edit stage", "stage", st.Stage)
		return
	}
	for field, v := range vals {
		st.Manual.Set(cat, field, v)
	}
	st.Editing = ""
	c.addUser(st, string(cat)+" fields saved")

	if raw, ok := vals["amount"]; ok && strings.TrimSpace(raw) != "" && cat == record.CategoryOpportunity {
		if _, parsed := merge.ParseAmount(raw); !parsed {
			c.addAssistant(st, fmt.Sprintf("%q doesn't look like an amount, so I left it out. Please enter a plain number like 50000.", raw))
		}
	}

	// Missing-field check re-runs after every save; the stage only advances
	// once the combined record is complete for this category.
	if len(fields.Missing(cat, st.Combined())) == 0 {
		st.Stage = VerifyStage(cat)
	}
}

func (c *Controller) handleConfirm(st *State) {
	cat := StageCategory(st.Stage)
	if cat == "" || st.Stage != VerifyStage(cat) {
		c.logger.Warn("confirm outside a verify stage", "stage", st.Stage)
		return
	}
	st.Verified[cat] = true
	c.addUser(st, string(cat)+" verified")

	switch cat {
	case record.CategoryAccount:
		c.addAssistant(st, "Great! Now let's move on to the contact information.")
		st.Stage = StageContactEdit
	case record.CategoryContact:
		c.addAssistant(st, "Excellent! Now let's set up the opportunity information.")
		st.Stage = StageOpportunityEdit
	case record.CategoryOpportunity:
		c.addAssistant(st, "Perfect! Let me prepare the final review with everything that will be sent to the CRM.")
		st.Stage = StageFinalReview
	}
}

func (c *Controller) handleEdit(st *State) {
	cat := StageCategory(st.Stage)
	if cat == "" || st.Stage != VerifyStage(cat) {
		c.logger.Warn("edit outside a verify stage", "stage", st.Stage)
		return
	}
	st.Verified[cat] = false
	st.Editing = cat
	c.addUser(st, "edit "+string(cat))
	st.Stage = EditStage(cat)
}

func (c *Controller) handleBack(st *State) {
	if st.Stage != StageFinalReview {
		c.logger.Warn("back outside final review", "stage", st.Stage)
		return
	}
	st.Stage = StageOpportunityVerify
}

func (c *Controller) handleSubmit(ctx context.Context, st *State) {
	if st.Stage != StageFinalReview {
		c.logger.Warn("submit outside final review", "stage", st.Stage)
		return
	}
	data := st.Combined()
	res := c.crm.CreateAll(ctx, data)

	if res.Mode == crm.ModePreview {
		c.addAssistant(st, "Preview mode: CRM integration is not configured. The records above show what would be created.")
	} else if created := res.Created(); len(created) > 0 {
		var lines []string
		for _, cat := range record.Categories {
			if id, ok := created[cat]; ok {
				lines = append(lines, "  • "+string(cat)+": "+id)
			}
		}
		c.addAssistant(st, "Records created in the CRM:\n"+strings.Join(lines, "\n"))
	} else {
		c.addAssistant(st, "No records were created. Please check the errors below.")
	}

	if errs := res.Errors(); len(errs) > 0 {
		var lines []string
		for _, e := range errs {
			lines = append(lines, "  • "+e)
		}
		c.addAssistant(st, "Errors:\n"+strings.Join(lines, "\n"))
	}

	if c.onSubmit != nil {
		c.onSubmit(ctx, st, data, res)
	}

	// Both live and preview submissions complete the conversation; per-entity
	// write failures were reported above and do not hold the session open.
	st.Stage = StageComplete
}

func (c *Controller) addUser(st *State, text string) {
	st.Messages = append(st.Messages, Message{Role: "user", Text: text, At: c.now()})
}

func (c *Controller) addAssistant(st *State, text string) {
	st.Messages = append(st.Messages, Message{Role: "assistant", Text: text, At: c.now()})
}

// addInfo appends an assistant message unless the identical text was already
// emitted. This is what makes re-rendering a stage idempotent.
func (c *Controller) addInfo(st *State, text string) {
	if st.HasAssistantMessage(text) {
		return
	}
	c.addAssistant(st, text)
}
