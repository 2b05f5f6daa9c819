// Package bus connects the conversation engine to NATS so chat surfaces
// (Slack bridges, internal bots) can drive sessions without going through HTTP.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectChatInbound carries user chat messages into the engine.
	SubjectChatInbound = "salescribe.chat.message"
	// SubjectChatReply carries assistant replies back to the originating surface.
	SubjectChatReply = "salescribe.chat.reply"
	// SubjectSubmitted announces completed CRM submissions.
	SubjectSubmitted = "salescribe.records.submitted"
)

// ChatMessage is the inbound payload on SubjectChatInbound. UserID keys the
// session when SessionID is absent, so each chat user gets a sticky session.
type ChatMessage struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

// ChatReply is the outbound payload on SubjectChatReply.
type ChatReply struct {
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	Stage     string   `json:"stage"`
	Messages  []string `json:"messages"`
}

// SubmittedEvent is published on SubjectSubmitted after each submit.
type SubmittedEvent struct {
	SessionID     string    `json:"session_id"`
	Mode          string    `json:"mode"`
	AccountID     string    `json:"account_id,omitempty"`
	ContactID     string    `json:"contact_id,omitempty"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
	At            time.Time `json:"at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
