package record

import "strings"

// Category identifies one of the three record types collected per call.
type Category string

const (
	CategoryAccount     Category = "account"
	CategoryContact     Category = "contact"
	CategoryOpportunity Category = "opportunity"
)

// Categories in collection priority order.
var Categories = []Category{CategoryAccount, CategoryContact, CategoryOpportunity}

// Record type and stage defaults applied at construction time. The CRM side
// expects these exact labels.
const (
	AccountRecordType       = "Customer"
	ContactRecordType       = "CRM contact"
	DefaultStage            = "Identified"
	DefaultForecastCategory = "Pipeline"
	DefaultLeadSource       = "Call"
)

// Contact is a person reached on the call. Empty string means absent.
type Contact struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Title      string `json:"title,omitempty"`
	Currency   string `json:"currency,omitempty"`
	RecordType string `json:"record_type,omitempty"`
}

func NewContact() *Contact {
	return &Contact{RecordType: ContactRecordType}
}

// Account is the company on the other side of the deal.
type Account struct {
	Name              string   `json:"name,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	Website           string   `json:"website,omitempty"`
	AnnualRevenue     *float64 `json:"annual_revenue,omitempty"`
	NumberOfEmployees *int     `json:"number_of_employees,omitempty"`
	BillingCity       string   `json:"billing_city,omitempty"`
	BillingState      string   `json:"billing_state,omitempty"`
	BillingCountry    string   `json:"billing_country,omitempty"`
	Currency          string   `json:"currency,omitempty"`
	Segment           string   `json:"segment,omitempty"`
	Region            string   `json:"region,omitempty"`
	RecordType        string   `json:"record_type,omitempty"`
}

func NewAccount() *Account {
	return &Account{RecordType: AccountRecordType}
}

// MEDDIC holds qualification notes. All six fields are optional free text.
type MEDDIC struct {
	MetricsNotes          string `json:"metrics_notes,omitempty"`
	EconomicBuyerNotes    string `json:"economic_buyer_notes,omitempty"`
	DecisionCriteriaNotes string `json:"decision_criteria_notes,omitempty"`
	DecisionProcessNotes  string `json:"decision_process_notes,omitempty"`
	IdentifiedPain        string `json:"identified_pain,omitempty"`
	Champion              string `json:"champion,omitempty"`
}

var meddicFieldNames = []string{
	"metrics_notes",
	"economic_buyer_notes",
	"decision_criteria_notes",
	"decision_process_notes",
	"identified_pain",
	"champion",
}

func (m *MEDDIC) fieldValues() []string {
	return []string{
		m.MetricsNotes,
		m.EconomicBuyerNotes,
		m.DecisionCriteriaNotes,
		m.DecisionProcessNotes,
		m.IdentifiedPain,
		m.Champion,
	}
}

// MissingFields returns the names of MEDDIC fields that are blank.
func (m *MEDDIC) MissingFields() []string {
	var missing []string
	for i, v := range m.fieldValues() {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, meddicFieldNames[i])
		}
	}
	return missing
}

// Completeness is the fraction of the six MEDDIC fields that are filled.
func (m *MEDDIC) Completeness() float64 {
	filled := 0
	for _, v := range m.fieldValues() {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(meddicFieldNames))
}

// Opportunity is the deal under discussion.
type Opportunity struct {
	Name               string   `json:"name,omitempty"`
	Stage              string   `json:"stage,omitempty"`
	ForecastCategory   string   `json:"forecast_category,omitempty"`
	Amount             *float64 `json:"amount,omitempty"`
	CloseDate          string   `json:"close_date,omitempty"`
	Probability        *int     `json:"probability,omitempty"`
	DealSummary        string   `json:"deal_summary,omitempty"`
	NextSteps          string   `json:"next_steps,omitempty"`
	LeadSource         string   `json:"lead_source,omitempty"`
	Type               string   `json:"type,omitempty"`
	Practice           string   `json:"practice,omitempty"`
	Region             string   `json:"region,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	ProjectedStartDate string   `json:"projected_start_date,omitempty"`
	NumberOfWeeks      *int     `json:"number_of_weeks,omitempty"`
	MEDDIC             *MEDDIC  `json:"meddic,omitempty"`
}

func NewOpportunity() *Opportunity {
	return &Opportunity{
		Stage:            DefaultStage,
		ForecastCategory: DefaultForecastCategory,
		LeadSource:       DefaultLeadSource,
	}
}

// ApplyDefaults fills stage, forecast category, lead source and record types
// where the extraction left them blank.
func (o *Opportunity) ApplyDefaults() {
	if o.Stage == "" {
		o.Stage = DefaultStage
	}
	if o.ForecastCategory == "" {
		o.ForecastCategory = DefaultForecastCategory
	}
	if o.LeadSource == "" {
		o.LeadSource = DefaultLeadSource
	}
}

// CallData is everything captured from one sales call.
type CallData struct {
	Contact     *Contact     `json:"contact,omitempty"`
	Account     *Account     `json:"account,omitempty"`
	Opportunity *Opportunity `json:"opportunity,omitempty"`
	Transcript  string       `json:"transcript,omitempty"`
	Summary     string       `json:"summary,omitempty"`
}

// Clone returns a deep copy. Merging must never mutate its inputs.
func (d *CallData) Clone() *CallData {
	if d == nil {
		return nil
	}
	out := &CallData{Transcript: d.Transcript, Summary: d.Summary}
	if d.Contact != nil {
		c := *d.Contact
		out.Contact = &c
	}
	if d.Account != nil {
		a := *d.Account
		a.AnnualRevenue = clonePtr(d.Account.AnnualRevenue)
		a.NumberOfEmployees = clonePtr(d.Account.NumberOfEmployees)
		out.Account = &a
	}
	if d.Opportunity != nil {
		o := *d.Opportunity
		o.Amount = clonePtr(d.Opportunity.Amount)
		o.Probability = clonePtr(d.Opportunity.Probability)
		o.NumberOfWeeks = clonePtr(d.Opportunity.NumberOfWeeks)
		if d.Opportunity.MEDDIC != nil {
			m := *d.Opportunity.MEDDIC
			o.MEDDIC = &m
		}
		out.Opportunity = &o
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float64 and Int are pointer helpers for optional numeric fields.
func Float64(v float64) *float64 { return &v }
func Int(v int) *int             { return &v }
