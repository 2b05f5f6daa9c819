package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/salescribe/salescribe/internal/crm"
	"github.com/salescribe/salescribe/internal/fields"
	"github.com/salescribe/salescribe/internal/record"
)

type stubExtractor struct {
	data  *record.CallData
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, text string) (*record.CallData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data.Clone(), nil
}

type recordingCRM struct {
	mode   crm.Mode
	result crm.Result
	calls  int
	got    *record.CallData
}

func (r *recordingCRM) Mode() crm.Mode { return r.mode }

func (r *recordingCRM) CreateAll(ctx context.Context, data *record.CallData) crm.Result {
	r.calls++
	r.got = data
	return r.result
}

func fullExtraction() *record.CallData {
	return &record.CallData{
		Account: &record.Account{Name: "Acme", Currency: "USD", Region: "AMER"},
		Contact: &record.Contact{FirstName: "Jo", LastName: "March", Email: "jo@acme.com", Title: "VP Eng"},
		Opportunity: &record.Opportunity{
			Name:      "Acme - Platform",
			Amount:    record.Float64(50000),
			CloseDate: "2026-12-31",
			Currency:  "USD",
		},
	}
}

func partialExtraction() *record.CallData {
	// Account name only; everything else must be collected.
	return &record.CallData{
		Account: &record.Account{Name: "Acme"},
	}
}

func newTestController(ext Extractor, client crm.Client) *Controller {
	c := NewController(ext, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	n := 0
	c.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return c
}

func apply(t *testing.T, c *Controller, st *State, act Action) {
	t.Helper()
	if err := c.Apply(context.Background(), st, act); err != nil {
		t.Fatalf("apply %s: %v", act.Type, err)
	}
}

func lastAssistant(st *State) string {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == "assistant" {
			return st.Messages[i].Text
		}
	}
	return ""
}

func TestFullFlow_TranscriptToSubmit(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	sf := &recordingCRM{mode: crm.ModeLive, result: crm.Result{
		Mode:        crm.ModeLive,
		Account:     crm.EntityResult{Attempted: true, ID: "001"},
		Contact:     crm.EntityResult{Attempted: true, ID: "003"},
		Opportunity: crm.EntityResult{Attempted: true, ID: "006"},
	}}
	c := newTestController(ext, sf)
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "long call transcript"})
	if ext.calls != 1 {
		t.Errorf("expected one extraction, got %d", ext.calls)
	}
	// A complete extraction sails through every edit stage straight to the
	// first verification.
	if st.Stage != StageAccountVerify {
		t.Fatalf("expected account_verify, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionConfirm})
	if st.Stage != StageContactVerify {
		t.Fatalf("expected contact_verify, got %s", st.Stage)
	}
	apply(t, c, st, Action{Type: ActionConfirm})
	if st.Stage != StageOpportunityVerify {
		t.Fatalf("expected opportunity_verify, got %s", st.Stage)
	}
	apply(t, c, st, Action{Type: ActionConfirm})
	if st.Stage != StageFinalReview {
		t.Fatalf("expected final_review, got %s", st.Stage)
	}
	for _, cat := range record.Categories {
		if !st.Verified[cat] {
			t.Errorf("expected %s verified", cat)
		}
	}

	apply(t, c, st, Action{Type: ActionSubmit})
	if st.Stage != StageComplete {
		t.Fatalf("expected complete, got %s", st.Stage)
	}
	if sf.calls != 1 {
		t.Errorf("expected one CRM call, got %d", sf.calls)
	}
	if sf.got.Account.Name != "Acme" {
		t.Errorf("CRM received wrong data: %+v", sf.got.Account)
	}

	var found bool
	for _, m := range st.Messages {
		if m.Role == "assistant" && strings.Contains(m.Text, "001") {
			found = true
		}
	}
	if !found {
		t.Error("expected created ids in the dialogue")
	}
}

func TestTranscript_PartialExtractionPromptsMissing(t *testing.T) {
	ext := &stubExtractor{data: partialExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "short call"})

	if st.Stage != StageAccountEdit {
		t.Fatalf("expected account_edit, got %s", st.Stage)
	}
	last := lastAssistant(st)
	if !strings.Contains(last, "Currency") || !strings.Contains(last, "Region") {
		t.Errorf("expected missing-field prompt for currency and region, got %q", last)
	}
}

func TestFlow_MixedExtractionProgression(t *testing.T) {
	// Account has only a name, the contact is absent entirely, and the
	// opportunity arrived complete. Each category gates on its own missing
	// fields; the complete opportunity skips its edit form.
	ext := &stubExtractor{data: &record.CallData{
		Account: &record.Account{Name: "Acme Corp"},
		Opportunity: &record.Opportunity{
			Name:      "Acme Corp - CRM Upgrade",
			Amount:    record.Float64(50000),
			CloseDate: "2025-06-30",
		},
	}}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	if st.Stage != StageAccountEdit {
		t.Fatalf("expected account_edit, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{"currency": "USD", "region": "AMER"}})
	if st.Stage != StageAccountVerify {
		t.Fatalf("expected account_verify, got %s", st.Stage)
	}
	apply(t, c, st, Action{Type: ActionConfirm})
	if st.Stage != StageContactEdit {
		t.Fatalf("expected contact_edit, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{
		"last_name": "March", "email": "jo@acme.com", "title": "VP Eng",
	}})
	if st.Stage != StageContactVerify {
		t.Fatalf("expected contact_verify, got %s", st.Stage)
	}
	apply(t, c, st, Action{Type: ActionConfirm})

	// The opportunity is already complete, so no edit form shows.
	if st.Stage != StageOpportunityVerify {
		t.Fatalf("expected opportunity_verify, got %s", st.Stage)
	}
	apply(t, c, st, Action{Type: ActionConfirm})
	if st.Stage != StageFinalReview {
		t.Fatalf("expected final_review, got %s", st.Stage)
	}
}

func TestTranscript_ExtractionFailureFallsBackToQuestion(t *testing.T) {
	ext := &stubExtractor{err: errors.New("llm down")}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "transcript"})

	// Extraction failure never advances the stage; the dialogue degrades to
	// the highest-priority question, which is the account name.
	if st.Stage != StageTranscriptInput {
		t.Errorf("expected stage unchanged, got %s", st.Stage)
	}
	if !strings.Contains(lastAssistant(st), fields.QuestionText(record.CategoryAccount, "name")) {
		t.Errorf("expected account name fallback question, got %q", lastAssistant(st))
	}
	if !st.Asked(fields.QuestionID(record.CategoryAccount, "name")) {
		t.Error("fallback question must be logged as asked")
	}
}

func TestChatCollection_QuestionLoop(t *testing.T) {
	ext := &stubExtractor{data: partialExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionStartChat})
	if st.Stage != StageChatCollection {
		t.Fatalf("expected chat_collection, got %s", st.Stage)
	}
	// The opener asks for the account name, which is the highest priority.
	if !st.Asked(fields.QuestionID(record.CategoryAccount, "name")) {
		t.Fatalf("expected the opening question logged, asked=%v", st.QuestionsAsked)
	}

	apply(t, c, st, Action{Type: ActionChatMessage, Text: "The company is Acme"})
	// Extraction found the name, so the next unfilled, unasked field is asked.
	if !st.Asked(fields.QuestionID(record.CategoryAccount, "currency")) {
		t.Errorf("expected currency asked next, asked=%v", st.QuestionsAsked)
	}
}

func TestChatCollection_QuestionsNeverRepeat(t *testing.T) {
	ext := &stubExtractor{data: &record.CallData{Account: &record.Account{}}}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionStartChat})
	for i := 0; i < 12; i++ {
		apply(t, c, st, Action{Type: ActionChatMessage, Text: "not much to extract"})
	}

	seen := map[string]int{}
	for _, q := range st.QuestionsAsked {
		seen[q]++
		if seen[q] > 1 {
			t.Fatalf("question %s asked twice", q)
		}
	}
	// Nine required questions exist in total, so the log is capped there.
	if len(st.QuestionsAsked) > 9 {
		t.Errorf("expected at most 9 asked questions, got %d", len(st.QuestionsAsked))
	}
}

func TestChatCollection_CompleteAdvancesToAccountEdit(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionStartChat})
	apply(t, c, st, Action{Type: ActionChatMessage, Text: "Acme, Jo March, jo@acme.com, VP Eng, 50k, end of year"})

	// Everything required is filled, so collection ends and verification
	// begins at the account.
	if st.Stage != StageAccountVerify {
		t.Errorf("expected account_verify, got %s", st.Stage)
	}
}

func TestSaveFields_ManualWinsAndAdvances(t *testing.T) {
	ext := &stubExtractor{data: partialExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	if st.Stage != StageAccountEdit {
		t.Fatalf("expected account_edit, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{
		"name":     "Acme Corporation",
		"currency": "EUR",
		"region":   "EMEA",
	}})

	if st.Stage != StageAccountVerify {
		t.Fatalf("expected account_verify after completing the form, got %s", st.Stage)
	}
	combined := st.Combined()
	if combined.Account.Name != "Acme Corporation" {
		t.Errorf("manual name should win, got %q", combined.Account.Name)
	}
	if combined.Account.Currency != "EUR" {
		t.Errorf("expected manual currency, got %q", combined.Account.Currency)
	}
}

func TestSaveFields_IncompleteStaysInEdit(t *testing.T) {
	ext := &stubExtractor{data: partialExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{"currency": "USD"}})

	if st.Stage != StageAccountEdit {
		t.Errorf("region still missing; expected account_edit, got %s", st.Stage)
	}
}

func TestSaveFields_BadAmountNoticed(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm}) // account
	apply(t, c, st, Action{Type: ActionConfirm}) // contact
	apply(t, c, st, Action{Type: ActionEdit})    // back to opportunity edit
	if st.Stage != StageOpportunityEdit {
		t.Fatalf("expected opportunity_edit, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{"amount": "tons of money"}})

	var noticed bool
	for _, m := range st.Messages {
		if m.Role == "assistant" && strings.Contains(m.Text, "doesn't look like an amount") {
			noticed = true
		}
	}
	if !noticed {
		t.Error("expected a notice about the unparsable amount")
	}
	// The extracted amount survives, so the stage still advances.
	if st.Combined().Opportunity.Amount == nil || *st.Combined().Opportunity.Amount != 50000 {
		t.Errorf("extracted amount should survive a dropped manual value")
	}
}

func TestEdit_ClearsOnlyThatCategory(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm}) // account verified
	if !st.Verified[record.CategoryAccount] {
		t.Fatal("account should be verified")
	}

	// Contact verify → edit clears the contact flag only.
	apply(t, c, st, Action{Type: ActionEdit})
	if st.Verified[record.CategoryContact] {
		t.Error("contact verification should be cleared")
	}
	if !st.Verified[record.CategoryAccount] {
		t.Error("account verification must survive a contact edit")
	}
	if st.Stage != StageContactEdit {
		t.Errorf("expected contact_edit, got %s", st.Stage)
	}
}

func TestEdit_CompleteCategoryStaysOpenUntilSave(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	if st.Stage != StageAccountVerify {
		t.Fatalf("expected account_verify, got %s", st.Stage)
	}

	// The account is complete, but an explicit edit must not bounce straight
	// back to verification before the user has a chance to change anything.
	apply(t, c, st, Action{Type: ActionEdit})
	if st.Stage != StageAccountEdit {
		t.Fatalf("expected account_edit to stay open, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{"name": "Acme GmbH"}})
	if st.Stage != StageAccountVerify {
		t.Errorf("expected account_verify after the save, got %s", st.Stage)
	}
	if st.Combined().Account.Name != "Acme GmbH" {
		t.Errorf("expected the edited name, got %q", st.Combined().Account.Name)
	}
}

func TestBack_FromFinalReview(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	if st.Stage != StageFinalReview {
		t.Fatalf("expected final_review, got %s", st.Stage)
	}

	apply(t, c, st, Action{Type: ActionBack})
	if st.Stage != StageOpportunityVerify {
		t.Errorf("expected opportunity_verify, got %s", st.Stage)
	}
}

func TestSubmit_PreviewMode(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionSubmit})

	if st.Stage != StageComplete {
		t.Fatalf("expected complete, got %s", st.Stage)
	}
	var previewNotice bool
	for _, m := range st.Messages {
		if strings.Contains(m.Text, "Preview mode") {
			previewNotice = true
		}
	}
	if !previewNotice {
		t.Error("expected a preview-mode notice")
	}
}

func TestSubmit_PartialFailureCompletesWithItemizedErrors(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	sf := &recordingCRM{mode: crm.ModeLive, result: crm.Result{
		Mode:        crm.ModeLive,
		Account:     crm.EntityResult{Attempted: true, ID: "001"},
		Contact:     crm.EntityResult{Attempted: true, Err: "INVALID_EMAIL"},
		Opportunity: crm.EntityResult{Attempted: true, ID: "006"},
	}}
	c := newTestController(ext, sf)
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionSubmit})

	if st.Stage != StageComplete {
		t.Fatalf("partial failure still completes, got %s", st.Stage)
	}
	var itemized bool
	for _, m := range st.Messages {
		if strings.Contains(m.Text, "contact: INVALID_EMAIL") {
			itemized = true
		}
	}
	if !itemized {
		t.Error("expected the contact error itemized in the dialogue")
	}
}

func TestSubmitHook_ReceivesResult(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})

	var hookRes *crm.Result
	c.OnSubmit(func(ctx context.Context, st *State, data *record.CallData, res crm.Result) {
		hookRes = &res
	})

	st := NewState("s1")
	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionSubmit})

	if hookRes == nil {
		t.Fatal("expected the submit hook to run")
	}
	if hookRes.Mode != crm.ModePreview {
		t.Errorf("expected preview result in the hook, got %s", hookRes.Mode)
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionReset})

	if st.Stage != StageTranscriptInput {
		t.Errorf("expected transcript_input after reset, got %s", st.Stage)
	}
	if st.Extracted != nil || len(st.QuestionsAsked) != 0 {
		t.Error("reset must clear extraction and the asked log")
	}
	for _, cat := range record.Categories {
		if st.Verified[cat] {
			t.Errorf("reset must clear %s verification", cat)
		}
	}
	// The welcome renders again on the fresh state.
	if len(st.Messages) != 1 || !strings.Contains(st.Messages[0].Text, "sales assistant") {
		t.Errorf("expected only the welcome message, got %d messages", len(st.Messages))
	}
	if st.ID != "s1" {
		t.Errorf("reset must keep the session identity, got %s", st.ID)
	}
}

func TestRender_Idempotent(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	count := len(st.Messages)

	// Re-rendering the same stage with no new input appends nothing.
	c.Render(st)
	c.Render(st)
	if len(st.Messages) != count {
		t.Errorf("render is not idempotent: %d → %d messages", count, len(st.Messages))
	}
}

func TestApply_UnknownAction(t *testing.T) {
	c := newTestController(&stubExtractor{data: fullExtraction()}, crm.PreviewClient{})
	st := NewState("s1")

	if err := c.Apply(context.Background(), st, Action{Type: "bogus"}); err == nil {
		t.Fatal("expected an error for an unknown action type")
	}
}

func TestActionsOutsideTheirStageAreIgnored(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	// Confirm, submit and back are all no-ops at the transcript stage.
	apply(t, c, st, Action{Type: ActionConfirm})
	apply(t, c, st, Action{Type: ActionSubmit})
	apply(t, c, st, Action{Type: ActionBack})

	if st.Stage != StageTranscriptInput {
		t.Errorf("stage must not move, got %s", st.Stage)
	}
	for _, cat := range record.Categories {
		if st.Verified[cat] {
			t.Errorf("%s must not be verified", cat)
		}
	}
}

func TestVerifyPromptRepeatsAfterIdenticalSave(t *testing.T) {
	ext := &stubExtractor{data: fullExtraction()}
	c := newTestController(ext, crm.PreviewClient{})
	st := NewState("s1")

	apply(t, c, st, Action{Type: ActionSubmitTranscript, Text: "call"})
	if st.Stage != StageAccountVerify {
		t.Fatalf("expected account_verify, got %s", st.Stage)
	}

	// Reopen the account and save it back unchanged. The verify prompt text
	// is identical to the first one, but the user still needs a response to
	// the save.
	apply(t, c, st, Action{Type: ActionEdit})
	apply(t, c, st, Action{Type: ActionSaveFields, Fields: map[string]string{"name": "Acme"}})

	if st.Stage != StageAccountVerify {
		t.Fatalf("expected account_verify after save, got %s", st.Stage)
	}
	if !strings.Contains(lastAssistant(st), "Please review and verify the account") {
		t.Errorf("verify prompt was suppressed after the save: %q", lastAssistant(st))
	}
}
