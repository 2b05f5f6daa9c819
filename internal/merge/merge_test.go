package merge

import (
	"testing"

	"github.com/salescribe/salescribe/internal/record"
)

func TestCombine_ManualWins(t *testing.T) {
	extracted := &record.CallData{
		Account: &record.Account{Name: "Acme Corp", Currency: "USD", Region: "AMER"},
	}
	manual := NewManual()
	manual.Set(record.CategoryAccount, "name", "Acme Corporation")

	out := Combine(extracted, manual)

	if out.Account.Name != "Acme Corporation" {
		t.Errorf("manual value should win, got %q", out.Account.Name)
	}
	if out.Account.Currency != "USD" {
		t.Errorf("untouched extracted value should survive, got %q", out.Account.Currency)
	}
}

func TestCombine_BlankManualNeverErases(t *testing.T) {
	extracted := &record.CallData{
		Account: &record.Account{Name: "Acme Corp"},
	}
	manual := NewManual()
	manual.Set(record.CategoryAccount, "name", "   ")

	out := Combine(extracted, manual)

	if out.Account.Name != "Acme Corp" {
		t.Errorf("blank manual value must not erase, got %q", out.Account.Name)
	}
}

func TestCombine_SynthesisesEntityFromManualAlone(t *testing.T) {
	manual := NewManual()
	manual.Set(record.CategoryContact, "last_name", "March")
	manual.Set(record.CategoryContact, "email", "jo@acme.com")

	out := Combine(nil, manual)

	if out.Contact == nil {
		t.Fatal("expected a contact synthesised from manual values")
	}
	if out.Contact.LastName != "March" || out.Contact.Email != "jo@acme.com" {
		t.Errorf("unexpected contact %+v", out.Contact)
	}
	// Constructor defaults apply to synthesised entities.
	if out.Contact.RecordType != record.ContactRecordType {
		t.Error("expected constructor defaults on the synthesised contact")
	}
	if out.Account != nil {
		t.Error("no manual account values, none extracted: account must stay nil")
	}
}

func TestCombine_PureInputsUntouched(t *testing.T) {
	extracted := &record.CallData{
		Account: &record.Account{Name: "Acme Corp"},
	}
	manual := NewManual()
	manual.Set(record.CategoryAccount, "name", "Changed")

	first := Combine(extracted, manual)
	second := Combine(extracted, manual)

	if extracted.Account.Name != "Acme Corp" {
		t.Errorf("extracted input was mutated: %q", extracted.Account.Name)
	}
	if first.Account.Name != second.Account.Name {
		t.Error("same inputs must produce the same output")
	}

	// Mutating the output must not leak back into the input.
	first.Account.Name = "Mutated"
	if extracted.Account.Name != "Acme Corp" {
		t.Error("output aliases the extracted input")
	}
}

func TestCombine_AmountCoercion(t *testing.T) {
	manual := NewManual()
	manual.Set(record.CategoryOpportunity, "amount", "$50,000")

	out := Combine(nil, manual)

	if out.Opportunity == nil || out.Opportunity.Amount == nil {
		t.Fatal("expected a parsed amount")
	}
	if *out.Opportunity.Amount != 50000 {
		t.Errorf("expected 50000, got %v", *out.Opportunity.Amount)
	}
}

func TestCombine_UnparsableAmountDropped(t *testing.T) {
	extracted := &record.CallData{
		Opportunity: &record.Opportunity{Name: "Deal"},
	}
	manual := NewManual()
	manual.Set(record.CategoryOpportunity, "amount", "about fifty grand")

	out := Combine(extracted, manual)

	if out.Opportunity.Amount != nil {
		t.Errorf("unparsable amount must stay unset, got %v", *out.Opportunity.Amount)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"50000", 50000, true},
		{"$50,000", 50000, true},
		{"€1,250,000.50", 1250000.50, true},
		{"£75000", 75000, true},
		{" 120000 ", 120000, true},
		{"", 0, false},
		{"   ", 0, false},
		{"fifty grand", 0, false},
		{"-500", 0, false},
		{"$", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
