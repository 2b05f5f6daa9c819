// Package derive fills in fields that sales calls rarely state outright:
// close dates from quarter talk, currency from location, a ballpark amount
// from company size.
package derive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyByCountry = map[string]string{
	"US": "USD", "UNITED STATES": "USD", "USA": "USD",
	"GB": "GBP", "UNITED KINGDOM": "GBP", "UK": "GBP",
	"CA": "CAD", "CANADA": "CAD",
	"DE": "EUR", "GERMANY": "EUR",
	"FR": "EUR", "FRANCE": "EUR",
	"IT": "EUR", "ITALY": "EUR",
	"ES": "EUR", "SPAIN": "EUR",
	"NL": "EUR", "NETHERLANDS": "EUR",
	"BE": "EUR", "BELGIUM": "EUR",
	"AU": "AUD", "AUSTRALIA": "AUD",
	"JP": "JPY", "JAPAN": "JPY",
	"CN": "CNY", "CHINA": "CNY",
	"IN": "INR", "INDIA": "INR",
	"BR": "BRL", "BRAZIL": "BRL",
	"MX": "MXN", "MEXICO": "MXN",
	"CH": "CHF", "SWITZERLAND": "CHF",
	"SE": "SEK", "SWEDEN": "SEK",
	"NO": "NOK", "NORWAY": "NOK",
	"DK": "DKK", "DENMARK": "DKK",
}

// DefaultCurrency is used when no location hint matches.
const DefaultCurrency = "USD"

var (
	quarterRe = regexp.MustCompile(`(?i)Q([1-4])`)
	yearRe    = regexp.MustCompile(`\b(20\d{2})\b`)
	monthsRe  = regexp.MustCompile(`(?i)(\d+)\s*months?`)
)

// quarter end: month, day.
var quarterEnds = map[int][2]int{
	1: {3, 31},
	2: {6, 30},
	3: {9, 30},
	4: {12, 31},
}

// ParseQuarter resolves quarter talk ("Q2", "Q3 2026", "Q1 of next year") to
// the end-of-quarter date in YYYY-MM-DD form. Returns "" if no quarter is
// mentioned.
func ParseQuarter(text string, now time.Time) string {
	qm := quarterRe.FindStringSubmatch(text)
	if qm == nil {
		return ""
	}
	quarter, _ := strconv.Atoi(qm[1])

	year := now.Year()
	if strings.Contains(strings.ToLower(text), "next year") {
		year++
	} else if ym := yearRe.FindStringSubmatch(text); ym != nil {
		year, _ = strconv.Atoi(ym[1])
	}

	end := quarterEnds[quarter]
	return fmt.Sprintf("%04d-%02d-%02d", year, end[0], end[1])
}

var closeDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"January 2, 2006",
	"2 January 2006",
}

// ParseCloseDate normalises a close-date mention to YYYY-MM-DD. Handles
// quarter references, common date layouts, and "in N months". Returns "" when
// nothing parses.
func ParseCloseDate(text string, now time.Time) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.ContainsAny(text, "Qq") {
		if d := ParseQuarter(text, now); d != "" {
			return d
		}
	}

	for _, layout := range closeDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if mm := monthsRe.FindStringSubmatch(text); mm != nil {
		months, _ := strconv.Atoi(mm[1])
		return now.AddDate(0, 0, months*30).Format("2006-01-02")
	}

	return ""
}

// CurrencyForLocation maps a country (or region) hint to an ISO currency code,
// defaulting to USD.
func CurrencyForLocation(country, region string) string {
	for _, hint := range []string{country, region} {
		hint = strings.ToUpper(strings.TrimSpace(hint))
		if hint == "" {
			continue
		}
		if code, ok := currencyByCountry[hint]; ok {
			return code
		}
		for key, code := range currencyByCountry {
			if strings.Contains(key, hint) || strings.Contains(hint, key) {
				return code
			}
		}
	}
	return DefaultCurrency
}

// EstimateAmount guesses a deal size from headcount when the call never named
// a number. Returns 0 when there is nothing to go on.
func EstimateAmount(employees int) float64 {
	switch {
	case employees <= 0:
		return 0
	case employees < 50:
		return 50_000
	case employees < 500:
		return 150_000
	case employees < 5000:
		return 500_000
	default:
		return 1_000_000
	}
}

// OpportunityName formats the canonical "Account - Project" opportunity name.
func OpportunityName(account, project string) string {
	if project == "" {
		return account
	}
	return account + " - " + project
}

// DetectLeadSource scans the transcript for partner involvement. Google on the
// call means the lead is attributed to the partner channel.
func DetectLeadSource(transcript string) string {
	lower := strings.ToLower(transcript)
	for _, kw := range []string{"google", "googler", "gcp"} {
		if strings.Contains(lower, kw) {
			return "partner-google"
		}
	}
	return "Call"
}

// FormatDealSummary prefixes a call summary with its capture timestamp so
// later edits stay distinguishable in the CRM description field.
func FormatDealSummary(summary, nextSteps string, now time.Time) string {
	out := "[" + now.Format("2006-01-02 15:04:05") + "] Initial call summary: " + summary
	if nextSteps != "" {
		out += "\n\nNext Steps: " + nextSteps
	}
	return out
}
