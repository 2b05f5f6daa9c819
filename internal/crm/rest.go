package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/salescribe/salescribe/internal/record"
)

const apiVersion = "v59.0"

// Credentials configures the OAuth refresh-token flow against a Salesforce
// org. All four values must be set for live mode.
type Credentials struct {
	InstanceURL  string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Configured reports whether every credential is present.
func (c Credentials) Configured() bool {
	return c.InstanceURL != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// RestClient writes records over the Salesforce REST API.
type RestClient struct {
	creds  Credentials
	client *http.Client
	logger *slog.Logger
}

func NewRestClient(creds Credentials, logger *slog.Logger) *RestClient {
	return &RestClient{
		creds:  creds,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// NewClient picks the live client when credentials are configured and the
// preview client otherwise. Absence of configuration is not an error.
func NewClient(creds Credentials, logger *slog.Logger) Client {
	if creds.Configured() {
		return NewRestClient(creds, logger)
	}
	logger.Warn("salesforce not configured — running in preview mode")
	return PreviewClient{}
}

func (c *RestClient) Mode() Mode { return ModeLive }

// CreateAll creates account, contact and opportunity in order. Each entity is
// best effort: one failure is recorded and the remaining creates still run,
// minus the links that failed to materialise.
func (c *RestClient) CreateAll(ctx context.Context, data *record.CallData) Result {
	res := Result{Mode: ModeLive}
	if data == nil {
		return res
	}

	token, instance, err := c.accessToken(ctx)
	if err != nil {
		msg := "authentication failed: " + err.Error()
		if data.Account != nil {
			res.Account = EntityResult{Attempted: true, Err: msg}
		}
		if data.Contact != nil {
			res.Contact = EntityResult{Attempted: true, Err: msg}
		}
		if data.Opportunity != nil {
			res.Opportunity = EntityResult{Attempted: true, Err: msg}
		}
		return res
	}

	var accountID string
	if data.Account != nil && data.Account.Name != "" {
		res.Account.Attempted = true
		id, err := c.createObject(ctx, token, instance, "Account", FormatAccount(data.Account))
		if err != nil {
			res.Account.Err = err.Error()
			c.logger.Error("account create failed", "error", err)
		} else {
			res.Account.ID = id
			accountID = id
		}
	}

	if data.Contact != nil && data.Contact.LastName != "" {
		res.Contact.Attempted = true
		id, err := c.createObject(ctx, token, instance, "Contact", FormatContact(data.Contact, accountID))
		if err != nil {
			res.Contact.Err = err.Error()
			c.logger.Error("contact create failed", "error", err)
		} else {
			res.Contact.ID = id
		}
	}

	if data.Opportunity != nil && data.Opportunity.Name != "" {
		res.Opportunity.Attempted = true
		fields := FormatOpportunity(data.Opportunity, accountID)
		id, err := c.createObject(ctx, token, instance, "Opportunity", fields)
		if err != nil && strings.Contains(err.Error(), "MEDDIC") {
			// Orgs without the MEDDIC custom fields reject the whole insert.
			// Retry once with those fields stripped.
			c.logger.Warn("retrying opportunity without MEDDIC custom fields", "error", err)
			for k := range fields {
				if strings.HasPrefix(k, "MEDDIC_") {
					delete(fields, k)
				}
			}
			id, err = c.createObject(ctx, token, instance, "Opportunity", fields)
		}
		if err != nil {
			res.Opportunity.Err = err.Error()
			c.logger.Error("opportunity create failed", "error", err)
		} else {
			res.Opportunity.ID = id
		}
	}

	return res
}

func (c *RestClient) accessToken(ctx context.Context) (token, instance string, err error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"refresh_token": {c.creds.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.creds.InstanceURL+"/services/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("token exchange %d: %s", resp.StatusCode, string(body))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		InstanceURL string `json:"instance_url"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", "", fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", "", fmt.Errorf("token exchange returned no access token")
	}
	instance = tr.InstanceURL
	if instance == "" {
		instance = c.creds.InstanceURL
	}
	return tr.AccessToken, instance, nil
}

func (c *RestClient) createObject(ctx context.Context, token, instance, objType string, fields map[string]any) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", objType, err)
	}

	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s/", instance, apiVersion, objType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s create: %w", objType, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%s create %d: %s", objType, resp.StatusCode, string(respBody))
	}

	var created struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("parse create response: %w", err)
	}
	if !created.Success || created.ID == "" {
		return "", fmt.Errorf("%s create reported failure: %s", objType, string(respBody))
	}

	c.logger.Info("record created", "type", objType, "id", created.ID)
	return created.ID, nil
}
