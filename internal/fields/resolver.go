package fields

import "github.com/salescribe/salescribe/internal/record"

// Question is the next field to ask the user for.
type Question struct {
	Category record.Category
	FieldID  string
	Text     string
}

// Missing returns the required field ids a category is still lacking. A nil
// entity counts as lacking all of its required fields.
func Missing(cat record.Category, data *record.CallData) []string {
	var missing []string
	for _, id := range Required(cat) {
		if !Has(cat, id, data) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Has reports whether the combined record carries a non-blank value for the
// given field. Numeric fields count as present when set and positive.
func Has(cat record.Category, id string, data *record.CallData) bool {
	if data == nil {
		return false
	}
	switch cat {
	case record.CategoryAccount:
		a := data.Account
		if a == nil {
			return false
		}
		switch id {
		case "name":
			return present(a.Name)
		case "currency":
			return present(a.Currency)
		case "region":
			return present(a.Region)
		case "industry":
			return present(a.Industry)
		case "website":
			return present(a.Website)
		case "billing_city":
			return present(a.BillingCity)
		case "billing_state":
			return present(a.BillingState)
		case "billing_country":
			return present(a.BillingCountry)
		}
	case record.CategoryContact:
		c := data.Contact
		if c == nil {
			return false
		}
		switch id {
		case "first_name":
			return present(c.FirstName)
		case "last_name":
			return present(c.LastName)
		case "email":
			return present(c.Email)
		case "phone":
			return present(c.Phone)
		case "title":
			return present(c.Title)
		}
	case record.CategoryOpportunity:
		o := data.Opportunity
		if o == nil {
			return false
		}
		switch id {
		case "name":
			return present(o.Name)
		case "amount":
			return o.Amount != nil && *o.Amount > 0
		case "close_date":
			return present(o.CloseDate)
		case "next_steps":
			return present(o.NextSteps)
		}
	}
	return false
}

// NextQuestion picks the first required field that is neither present in the
// combined record nor already asked. Categories are walked in
// account → contact → opportunity order, fields in registry order. Returns nil
// when every required field is present or asked, which signals the dialogue is
// ready to advance.
func NextQuestion(data *record.CallData, asked []string) *Question {
	askedSet := make(map[string]struct{}, len(asked))
	for _, id := range asked {
		askedSet[id] = struct{}{}
	}
	for _, cat := range record.Categories {
		for _, id := range Missing(cat, data) {
			qid := QuestionID(cat, id)
			if _, done := askedSet[qid]; done {
				continue
			}
			return &Question{Category: cat, FieldID: id, Text: questionFor(cat, id)}
		}
	}
	return nil
}

func questionFor(cat record.Category, id string) string {
	if q := QuestionText(cat, id); q != "" {
		return q
	}
	return "Could you provide the " + string(cat) + " " + id + "?"
}
