package extractor

import (
	"strings"
	"time"

	"github.com/salescribe/salescribe/internal/derive"
	"github.com/salescribe/salescribe/internal/record"
)

// postProcess fills derivable fields the model tends to leave out: record
// types, currency from location, normalised close date, the canonical
// opportunity name, lead source, and a headcount-based amount estimate.
func postProcess(data *record.CallData, now time.Time) {
	if data.Account != nil {
		a := data.Account
		if a.RecordType == "" {
			a.RecordType = record.AccountRecordType
		}
		if a.Currency == "" && (a.BillingCountry != "" || a.Region != "") {
			a.Currency = derive.CurrencyForLocation(a.BillingCountry, a.Region)
		}
	}

	if data.Contact != nil {
		c := data.Contact
		if c.RecordType == "" {
			c.RecordType = record.ContactRecordType
		}
		if c.Currency == "" && data.Account != nil {
			c.Currency = data.Account.Currency
		}
	}

	if data.Opportunity == nil {
		return
	}
	o := data.Opportunity
	o.ApplyDefaults()

	if o.CloseDate != "" {
		if d := derive.ParseCloseDate(o.CloseDate, now); d != "" {
			o.CloseDate = d
		}
	}

	if data.Account != nil && data.Account.Name != "" {
		switch {
		case o.Name == "":
			o.Name = data.Account.Name
		case !strings.HasPrefix(o.Name, data.Account.Name):
			o.Name = derive.OpportunityName(data.Account.Name, o.Name)
		}
	}

	if o.LeadSource == record.DefaultLeadSource && data.Transcript != "" {
		o.LeadSource = derive.DetectLeadSource(data.Transcript)
	}

	if o.Amount == nil && data.Account != nil && data.Account.NumberOfEmployees != nil {
		if est := derive.EstimateAmount(*data.Account.NumberOfEmployees); est > 0 {
			o.Amount = record.Float64(est)
		}
	}

	if o.Currency == "" && data.Account != nil {
		o.Currency = data.Account.Currency
	}
	if o.Region == "" && data.Account != nil {
		o.Region = data.Account.Region
	}

	if o.DealSummary == "" && data.Summary != "" {
		o.DealSummary = derive.FormatDealSummary(data.Summary, o.NextSteps, now)
	}
}
