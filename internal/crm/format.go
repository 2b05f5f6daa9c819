package crm

import "github.com/salescribe/salescribe/internal/record"

// Field maps below follow the org's Salesforce schema: standard API names
// plus the custom Segment__c / Region__c / Next_Steps__c / MEDDIC_*__c fields.

// FormatAccount renders an account as the sObject field map that would be
// written.
func FormatAccount(a *record.Account) map[string]any {
	if a == nil {
		return nil
	}
	out := map[string]any{"Name": a.Name}
	if a.Industry != "" {
		out["Industry"] = a.Industry
	}
	if a.Website != "" {
		out["Website"] = a.Website
	}
	if a.AnnualRevenue != nil {
		out["AnnualRevenue"] = *a.AnnualRevenue
	}
	if a.NumberOfEmployees != nil {
		out["NumberOfEmployees"] = *a.NumberOfEmployees
	}
	if a.BillingCity != "" {
		out["BillingCity"] = a.BillingCity
	}
	if a.BillingState != "" {
		out["BillingState"] = a.BillingState
	}
	if a.BillingCountry != "" {
		out["BillingCountry"] = a.BillingCountry
	}
	if a.Currency != "" {
		out["CurrencyIsoCode"] = a.Currency
	}
	if a.Segment != "" {
		out["Segment__c"] = a.Segment
	}
	if a.Region != "" {
		out["Region__c"] = a.Region
	}
	return out
}

// FormatContact renders a contact, linking it to an account when the id is
// known.
func FormatContact(c *record.Contact, accountID string) map[string]any {
	if c == nil {
		return nil
	}
	out := map[string]any{"LastName": c.LastName}
	if c.FirstName != "" {
		out["FirstName"] = c.FirstName
	}
	if c.Email != "" {
		out["Email"] = c.Email
	}
	if c.Phone != "" {
		out["Phone"] = c.Phone
	}
	if c.Title != "" {
		out["Title"] = c.Title
	}
	if c.Currency != "" {
		out["CurrencyIsoCode"] = c.Currency
	}
	if accountID != "" {
		out["AccountId"] = accountID
	}
	return out
}

// FormatOpportunity renders an opportunity including its MEDDIC custom
// fields.
func FormatOpportunity(o *record.Opportunity, accountID string) map[string]any {
	if o == nil {
		return nil
	}
	out := map[string]any{
		"Name":             o.Name,
		"StageName":        nonEmpty(o.Stage, record.DefaultStage),
		"ForecastCategory": nonEmpty(o.ForecastCategory, record.DefaultForecastCategory),
		"LeadSource":       nonEmpty(o.LeadSource, record.DefaultLeadSource),
	}
	if o.Amount != nil {
		out["Amount"] = *o.Amount
	}
	if o.CloseDate != "" {
		out["CloseDate"] = o.CloseDate
	}
	if o.Probability != nil {
		out["Probability"] = *o.Probability
	}
	if o.DealSummary != "" {
		out["Description"] = o.DealSummary
	}
	if o.NextSteps != "" {
		out["Next_Steps__c"] = o.NextSteps
	}
	if o.Type != "" {
		out["Type"] = o.Type
	}
	if o.Practice != "" {
		out["Practice__c"] = o.Practice
	}
	if o.Region != "" {
		out["Region__c"] = o.Region
	}
	if o.Currency != "" {
		out["CurrencyIsoCode"] = o.Currency
	}
	if o.ProjectedStartDate != "" {
		out["Projected_Start_Date__c"] = o.ProjectedStartDate
	}
	if o.NumberOfWeeks != nil {
		out["Number_of_Weeks__c"] = *o.NumberOfWeeks
	}
	if accountID != "" {
		out["AccountId"] = accountID
	}
	if m := o.MEDDIC; m != nil {
		if m.MetricsNotes != "" {
			out["MEDDIC_Metrics_Notes__c"] = m.MetricsNotes
		}
		if m.EconomicBuyerNotes != "" {
			out["MEDDIC_Economic_Buyers_Notes__c"] = m.EconomicBuyerNotes
		}
		if m.DecisionCriteriaNotes != "" {
			out["MEDDIC_Decision_Criteria_Notes__c"] = m.DecisionCriteriaNotes
		}
		if m.DecisionProcessNotes != "" {
			out["MEDDIC_Decision_Process_Notes__c"] = m.DecisionProcessNotes
		}
		if m.IdentifiedPain != "" {
			out["MEDDIC_Identified_Pain__c"] = m.IdentifiedPain
		}
		if m.Champion != "" {
			out["MEDDIC_Champion__c"] = m.Champion
		}
	}
	return out
}

func nonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
