// Package crm is the write boundary to Salesforce. Records are created in
// account → contact → opportunity order, best effort per entity, with the
// created ids passed along as links. An unconfigured client degrades to a
// preview that reports what would have been written.
package crm

import (
	"context"

	"github.com/salescribe/salescribe/internal/record"
)

// Mode says whether creates actually hit the CRM.
type Mode string

const (
	ModeLive    Mode = "live"
	ModePreview Mode = "preview"
)

// EntityResult is the per-entity outcome of a create attempt.
type EntityResult struct {
	Attempted bool   `json:"attempted"`
	ID        string `json:"id,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Result is the itemized outcome of one submission. Partial success is a
// valid outcome; callers report per entity, never as one aggregate failure.
type Result struct {
	Mode        Mode         `json:"mode"`
	Account     EntityResult `json:"account"`
	Contact     EntityResult `json:"contact"`
	Opportunity EntityResult `json:"opportunity"`
}

// Created returns the entity → id pairs that were actually written.
func (r Result) Created() map[record.Category]string {
	out := map[record.Category]string{}
	if r.Account.ID != "" {
		out[record.CategoryAccount] = r.Account.ID
	}
	if r.Contact.ID != "" {
		out[record.CategoryContact] = r.Contact.ID
	}
	if r.Opportunity.ID != "" {
		out[record.CategoryOpportunity] = r.Opportunity.ID
	}
	return out
}

// Errors returns the itemized per-entity failures.
func (r Result) Errors() []string {
	var errs []string
	for _, pair := range []struct {
		cat record.Category
		res EntityResult
	}{
		{record.CategoryAccount, r.Account},
		{record.CategoryContact, r.Contact},
		{record.CategoryOpportunity, r.Opportunity},
	} {
		if pair.res.Err != "" {
			errs = append(errs, string(pair.cat)+": "+pair.res.Err)
		}
	}
	return errs
}

// Client is what the conversation controller talks to.
type Client interface {
	// Mode reports whether this client writes for real.
	Mode() Mode
	// CreateAll creates the three records in order, linking ids as it goes.
	// It never returns an error; failures are itemized inside the Result.
	CreateAll(ctx context.Context, data *record.CallData) Result
}

// PreviewClient is the degraded-but-successful path when Salesforce is not
// configured. Creates are acknowledged without writing anything.
type PreviewClient struct{}

func (PreviewClient) Mode() Mode { return ModePreview }

func (PreviewClient) CreateAll(ctx context.Context, data *record.CallData) Result {
	res := Result{Mode: ModePreview}
	res.Account.Attempted = data != nil && data.Account != nil
	res.Contact.Attempted = data != nil && data.Contact != nil
	res.Opportunity.Attempted = data != nil && data.Opportunity != nil
	return res
}
