// Package slack posts submission notifications to a Slack channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/salescribe/salescribe/internal/crm"
	"github.com/salescribe/salescribe/internal/record"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostSubmission posts a summary of a completed submission to the channel.
// Returns the message timestamp (ts) so callers can thread follow-ups.
func (p *Poster) PostSubmission(ctx context.Context, sessionID string, data *record.CallData, result *crm.Result) (string, error) {
	text := formatSubmissionMessage(sessionID, data, result)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted submission to slack", "ts", slackResp.TS, "session_id", sessionID)
	return slackResp.TS, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	body, err := json.Marshal(map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func formatSubmissionMessage(sessionID string, data *record.CallData, result *crm.Result) string {
	var sb strings.Builder

	if result.Mode == crm.ModePreview {
		sb.WriteString("*Call records assembled (preview, not sent to Salesforce)*\n")
	} else {
		sb.WriteString("*Call records submitted to Salesforce*\n")
	}
	fmt.Fprintf(&sb, "_Session %s_\n\n", sessionID)

	if data.Account != nil && data.Account.Name != "" {
		fmt.Fprintf(&sb, "*Account:* %s", data.Account.Name)
		if id := result.Account.ID; id != "" {
			fmt.Fprintf(&sb, " (`%s`)", id)
		}
		sb.WriteString("\n")
	}
	if data.Contact != nil && data.Contact.LastName != "" {
		name := strings.TrimSpace(data.Contact.FirstName + " " + data.Contact.LastName)
		fmt.Fprintf(&sb, "*Contact:* %s", name)
		if id := result.Contact.ID; id != "" {
			fmt.Fprintf(&sb, " (`%s`)", id)
		}
		sb.WriteString("\n")
	}
	if data.Opportunity != nil && data.Opportunity.Name != "" {
		fmt.Fprintf(&sb, "*Opportunity:* %s", data.Opportunity.Name)
		if data.Opportunity.Amount != nil && *data.Opportunity.Amount > 0 {
			fmt.Fprintf(&sb, " (%s %.0f)", data.Opportunity.Currency, *data.Opportunity.Amount)
		}
		if id := result.Opportunity.ID; id != "" {
			fmt.Fprintf(&sb, " (`%s`)", id)
		}
		sb.WriteString("\n")
	}

	if errs := result.Errors(); len(errs) > 0 {
		sb.WriteString("\n*Errors:*\n")
		for _, e := range errs {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}

	return sb.String()
}
