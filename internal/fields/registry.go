// Package fields declares the per-category field catalogue and decides which
// required field the collection dialogue should ask for next.
package fields

import (
	"strings"

	"github.com/salescribe/salescribe/internal/record"
)

// Kind is the value type a field carries, used for input coercion hints.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Field describes one collectable field of an entity category.
type Field struct {
	ID       string
	Required bool
	Question string
	Kind     Kind
}

// registry order is the order fields are asked and rendered in.
var registry = map[record.Category][]Field{
	record.CategoryAccount: {
		{ID: "name", Required: true, Question: "What's the name of the company or account?", Kind: KindText},
		{ID: "currency", Required: true, Question: "What currency should we use? (e.g., USD, EUR, GBP)", Kind: KindText},
		{ID: "region", Required: true, Question: "What region is the company located in? (e.g., North America, Europe, Asia-Pacific)", Kind: KindText},
		{ID: "industry", Question: "What industry is the company in?", Kind: KindText},
		{ID: "website", Question: "What's the company website?", Kind: KindText},
		{ID: "billing_city", Question: "What city is the company based in?", Kind: KindText},
		{ID: "billing_state", Question: "What state or province is the company based in?", Kind: KindText},
		{ID: "billing_country", Question: "What country is the company based in?", Kind: KindText},
	},
	record.CategoryContact: {
		{ID: "last_name", Required: true, Question: "What's the contact person's last name?", Kind: KindText},
		{ID: "email", Required: true, Question: "What's the contact person's email address?", Kind: KindText},
		{ID: "title", Required: true, Question: "What's the contact person's job title?", Kind: KindText},
		{ID: "first_name", Question: "What's the contact person's first name?", Kind: KindText},
		{ID: "phone", Question: "What's the contact person's phone number?", Kind: KindText},
	},
	record.CategoryOpportunity: {
		{ID: "name", Required: true, Question: "What's the name of the opportunity or deal?", Kind: KindText},
		{ID: "amount", Required: true, Question: "What's the expected deal amount? (e.g., 50000)", Kind: KindNumber},
		{ID: "close_date", Required: true, Question: "What's the expected close date? (e.g., Q2 2025, or a specific date)", Kind: KindDate},
		{ID: "next_steps", Question: "What are the agreed next steps?", Kind: KindText},
	},
}

// All returns the declared fields for a category in registry order.
func All(cat record.Category) []Field {
	return registry[cat]
}

// Required returns the ids of the required fields for a category.
func Required(cat record.Category) []string {
	var ids []string
	for _, f := range registry[cat] {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// QuestionText returns the acquisition question for a field, or "" if
// unknown.
func QuestionText(cat record.Category, id string) string {
	for _, f := range registry[cat] {
		if f.ID == id {
			return f.Question
		}
	}
	return ""
}

// QuestionID is the identifier recorded in a session's asked-questions log.
func QuestionID(cat record.Category, id string) string {
	return string(cat) + "_" + id
}

func present(v string) bool {
	return strings.TrimSpace(v) != ""
}
