// Package merge combines LLM-extracted call data with user-supplied field
// values. Manual values always win over extracted ones, except that a blank
// manual value never erases an extracted value.
package merge

import (
	"strconv"
	"strings"

	"github.com/salescribe/salescribe/internal/record"
)

// Manual holds user-confirmed field values keyed by category then field id.
// Values are the raw strings the user typed; coercion happens at merge time.
type Manual map[record.Category]map[string]string

// NewManual returns an empty input map with all three categories initialised.
func NewManual() Manual {
	return Manual{
		record.CategoryAccount:     {},
		record.CategoryContact:     {},
		record.CategoryOpportunity: {},
	}
}

// Set records one manual field value.
func (m Manual) Set(cat record.Category, field, value string) {
	if m[cat] == nil {
		m[cat] = map[string]string{}
	}
	m[cat][field] = value
}

// hasValues reports whether a category carries at least one non-blank entry.
func (m Manual) hasValues(cat record.Category) bool {
	for _, v := range m[cat] {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Combine overlays manual inputs on the extracted record. Pure: neither input
// is mutated, and the same inputs always produce the same output. When the
// extraction produced no entity for a category that has manual values, a fresh
// entity is synthesised from the manual values alone.
func Combine(extracted *record.CallData, manual Manual) *record.CallData {
	out := extracted.Clone()
	if out == nil {
		out = &record.CallData{}
	}

	if manual.hasValues(record.CategoryAccount) || out.Account != nil {
		if out.Account == nil {
			out.Account = record.NewAccount()
		}
		applyAccount(out.Account, manual[record.CategoryAccount])
	}
	if manual.hasValues(record.CategoryContact) || out.Contact != nil {
		if out.Contact == nil {
			out.Contact = record.NewContact()
		}
		applyContact(out.Contact, manual[record.CategoryContact])
	}
	if manual.hasValues(record.CategoryOpportunity) || out.Opportunity != nil {
		if out.Opportunity == nil {
			out.Opportunity = record.NewOpportunity()
		}
		applyOpportunity(out.Opportunity, manual[record.CategoryOpportunity])
	}
	return out
}

func applyAccount(a *record.Account, vals map[string]string) {
	for field, raw := range vals {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		switch field {
		case "name":
			a.Name = v
		case "currency":
			a.Currency = v
		case "region":
			a.Region = v
		case "industry":
			a.Industry = v
		case "website":
			a.Website = v
		case "billing_city":
			a.BillingCity = v
		case "billing_state":
			a.BillingState = v
		case "billing_country":
			a.BillingCountry = v
		case "segment":
			a.Segment = v
		}
	}
}

func applyContact(c *record.Contact, vals map[string]string) {
	for field, raw := range vals {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		switch field {
		case "first_name":
			c.FirstName = v
		case "last_name":
			c.LastName = v
		case "email":
			c.Email = v
		case "phone":
			c.Phone = v
		case "title":
			c.Title = v
		}
	}
}

func applyOpportunity(o *record.Opportunity, vals map[string]string) {
	for field, raw := range vals {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		switch field {
		case "name":
			o.Name = v
		case "amount":
			// Unparsable amounts are dropped rather than smuggled into a
			// numeric field as text; the field stays missing and gets
			// re-prompted.
			if amt, ok := ParseAmount(v); ok {
				o.Amount = record.Float64(amt)
			}
		case "close_date":
			o.CloseDate = v
		case "next_steps":
			o.NextSteps = v
		case "stage":
			o.Stage = v
		}
	}
}

// ParseAmount coerces a user-typed deal amount to a number. Currency symbols,
// thousands separators and surrounding whitespace are tolerated.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	amt, err := strconv.ParseFloat(s, 64)
	if err != nil || amt < 0 {
		return 0, false
	}
	return amt, true
}
