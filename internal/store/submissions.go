package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salescribe/salescribe/internal/crm"
	"github.com/salescribe/salescribe/internal/record"
)

// Submission is one audit row for a completed session.
type Submission struct {
	ID            uuid.UUID
	SessionID     string
	Mode          string
	AccountID     string
	ContactID     string
	OpportunityID string
	Errors        []string
	Payload       *record.CallData
	CreatedAt     time.Time
}

// WriteSubmission records the outcome of one submit, including the full
// record payload as JSON for later inspection.
func (s *Store) WriteSubmission(ctx context.Context, sessionID string, data *record.CallData, result crm.Result) (uuid.UUID, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO submissions (id, session_id, mode, account_id, contact_id, opportunity_id, errors, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		id, sessionID, string(result.Mode),
		result.Account.ID, result.Contact.ID, result.Opportunity.ID,
		strings.Join(result.Errors(), "; "), payload,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

// GetSubmission fetches one audit row by id.
func (s *Store) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	var (
		sub     Submission
		errText string
		payload []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, session_id, mode, account_id, contact_id, opportunity_id, errors, payload, created_at
		FROM submissions WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.SessionID, &sub.Mode, &sub.AccountID, &sub.ContactID, &sub.OpportunityID, &errText, &payload, &sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if errText != "" {
		sub.Errors = strings.Split(errText, "; ")
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &sub.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &sub, nil
}

// RecentSubmissions lists the latest audit rows, newest first.
func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, mode, account_id, contact_id, opportunity_id, errors, created_at
		FROM submissions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var (
			sub     Submission
			errText string
		)
		if err := rows.Scan(&sub.ID, &sub.SessionID, &sub.Mode, &sub.AccountID, &sub.ContactID, &sub.OpportunityID, &errText, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if errText != "" {
			sub.Errors = strings.Split(errText, "; ")
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
